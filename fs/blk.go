package fs

import (
	"container/list"
	"fmt"

	"github.com/gubingren0409/biglab4/mem"
)

/// BSIZE is the size of a disk block in bytes; matching mem.PGSIZE lets a
/// block occupy exactly one simulated physical frame.
const BSIZE = mem.PGSIZE

/// Disk_i is the external block device spec.md §6 names: "the block-buffer
/// cache and on-disk filesystem layout loader ... are consumed through
/// narrow interfaces." Nothing in this module looks past ReadBlock/
/// WriteBlock.
type Disk_i interface {
	ReadBlock(block int, dst []byte) error
	WriteBlock(block int, src []byte) error
	NumBlocks() int
}

/// Bdev_block_t is one cached disk block, grounded on the teacher's
/// Bdev_block_t (fs/blk.go) shape — a block number, its backing memory, and
/// the disk it belongs to — with the refcounted eviction-callback machinery
/// dropped: spec.md's filesystem surface is "read block 0, validate magic,
/// record disk layout" only, with no writer path that needs LRU eviction
/// under memory pressure.
type Bdev_block_t struct {
	Block int
	Data  *mem.Frame
	Disk  Disk_i
}

/// Read loads the block's contents from disk into Data.
func (b *Bdev_block_t) Read() error {
	return b.Disk.ReadBlock(b.Block, b.Data.Bytes[:BSIZE])
}

/// Write flushes Data to disk.
func (b *Bdev_block_t) Write() error {
	return b.Disk.WriteBlock(b.Block, b.Data.Bytes[:BSIZE])
}

/// BlkList_t wraps a container/list.List of cached blocks, matching the
/// teacher's BlkList_t (fs/blk.go). Neither Boot nor cmd/mkfs uses it.
type BlkList_t struct {
	l *list.List
}

/// MkBlkList creates an empty block list.
func MkBlkList() *BlkList_t {
	return &BlkList_t{l: list.New()}
}

/// Len returns the number of blocks in the list.
func (bl *BlkList_t) Len() int { return bl.l.Len() }

/// PushBack appends a block to the list.
func (bl *BlkList_t) PushBack(b *Bdev_block_t) { bl.l.PushBack(b) }

/// Apply calls f for each block in the list, front to back.
func (bl *BlkList_t) Apply(f func(*Bdev_block_t)) {
	for e := bl.l.Front(); e != nil; e = e.Next() {
		f(e.Value.(*Bdev_block_t))
	}
}

/// Print dumps each block's number, for debug logging.
func (bl *BlkList_t) Print() {
	bl.Apply(func(b *Bdev_block_t) {
		fmt.Printf("block %d\n", b.Block)
	})
}

/// MemDisk is an in-memory Disk_i backed by a flat byte slice, used by tests
/// and by cmd/kernel to boot from a disk image without real storage
/// hardware.
type MemDisk struct {
	blocks [][]byte
}

/// NewMemDisk allocates an all-zero disk of nblocks blocks.
func NewMemDisk(nblocks int) *MemDisk {
	d := &MemDisk{blocks: make([][]byte, nblocks)}
	for i := range d.blocks {
		d.blocks[i] = make([]byte, BSIZE)
	}
	return d
}

func (d *MemDisk) NumBlocks() int { return len(d.blocks) }

func (d *MemDisk) ReadBlock(block int, dst []byte) error {
	if block < 0 || block >= len(d.blocks) {
		return fmt.Errorf("fs: ReadBlock: block %d out of range", block)
	}
	copy(dst, d.blocks[block])
	return nil
}

func (d *MemDisk) WriteBlock(block int, src []byte) error {
	if block < 0 || block >= len(d.blocks) {
		return fmt.Errorf("fs: WriteBlock: block %d out of range", block)
	}
	copy(d.blocks[block], src)
	return nil
}

/// Boot reads block 0 from disk, decodes and validates the superblock, and
/// logs the disk-layout report (spec.md §6's boot sequence, grounded on the
/// original kernel's fs_init/sb_print).
func Boot(disk Disk_i) (*Superblock, error) {
	raw := make([]byte, BSIZE)
	if err := disk.ReadBlock(FS_SB_BLOCK, raw); err != nil {
		return nil, err
	}
	sb, err := LoadSuperblock(raw)
	if err != nil {
		return nil, err
	}
	fmt.Print(sb.String())
	return sb, nil
}
