// Package fs implements the two external collaborators spec.md §6 groups
// under "Block cache and superblock loader (consumed)": a disk block cache
// and the boot-time superblock loader that validates the on-disk magic and
// records the disk-layout descriptor as a read-only, process-wide value.
package fs

import (
	"fmt"

	"github.com/gubingren0409/biglab4/util"
)

/// FS_MAGIC identifies a disk image this kernel can boot from (spec.md §6:
/// "validates a 32-bit magic").
const FS_MAGIC uint32 = 0x4c42_3440 /// "LB4@" as seen from the original kernel's FS_MAGIC

/// FS_SB_BLOCK is the block holding the superblock.
const FS_SB_BLOCK = 0

/// superblockBytes is the on-disk layout: 12 little-endian uint32 fields,
/// grounded on the original kernel's super_block_t (fs.c / fs/mod.h).
const superblockBytes = 12 * 4

/// Superblock is the in-memory disk-layout descriptor (spec.md §6): "{
/// block_size, total_blocks, total_inodes, inode_bitmap_firstblock,
/// inode_bitmap_blocks, inode_firstblock, inode_blocks,
/// data_bitmap_firstblock, data_bitmap_blocks, data_firstblock,
/// data_blocks }". It is initialised once at boot and treated as read-only
/// afterward by every other kernel subsystem.
type Superblock struct {
	BlockSize  uint32
	Magic      uint32
	TotalBlocks uint32
	TotalInodes uint32

	InodeBitmapFirstblock uint32
	InodeBitmapBlocks     uint32
	InodeFirstblock       uint32
	InodeBlocks           uint32

	DataBitmapFirstblock uint32
	DataBitmapBlocks     uint32
	DataFirstblock       uint32
	DataBlocks           uint32
}

/// LoadSuperblock decodes block-zero's raw bytes and validates the magic
/// (spec.md §6: "Startup fails fatally on magic mismatch"), mirroring the
/// original kernel's fs_init/sb_print sequence.
func LoadSuperblock(block0 []byte) (*Superblock, error) {
	if len(block0) < superblockBytes {
		return nil, fmt.Errorf("fs: block 0 too short for a superblock (%d bytes)", len(block0))
	}

	rd := func(i int) uint32 { return uint32(util.Readn(block0, 4, i*4)) }

	sb := &Superblock{
		Magic:                 rd(0),
		BlockSize:             rd(1),
		TotalBlocks:           rd(2),
		TotalInodes:           rd(3),
		InodeBitmapFirstblock: rd(4),
		InodeBitmapBlocks:     rd(5),
		InodeFirstblock:       rd(6),
		InodeBlocks:           rd(7),
		DataBitmapFirstblock:  rd(8),
		DataBitmapBlocks:      rd(9),
		DataFirstblock:        rd(10),
		DataBlocks:            rd(11),
	}

	if sb.Magic != FS_MAGIC {
		panic("fs: LoadSuperblock: invalid file system (magic number mismatch)")
	}
	return sb, nil
}

/// Encode serializes sb back into block-zero's on-disk layout, used by the
/// mkfs image builder.
func (sb *Superblock) Encode() []byte {
	buf := make([]byte, superblockBytes)
	wr := func(i int, v uint32) { util.Writen(buf, 4, i*4, int(v)) }
	wr(0, sb.Magic)
	wr(1, sb.BlockSize)
	wr(2, sb.TotalBlocks)
	wr(3, sb.TotalInodes)
	wr(4, sb.InodeBitmapFirstblock)
	wr(5, sb.InodeBitmapBlocks)
	wr(6, sb.InodeFirstblock)
	wr(7, sb.InodeBlocks)
	wr(8, sb.DataBitmapFirstblock)
	wr(9, sb.DataBitmapBlocks)
	wr(10, sb.DataFirstblock)
	wr(11, sb.DataBlocks)
	return buf
}

/// String prints the disk-layout report the original kernel's sb_print
/// emits at boot, for debug logging.
func (sb *Superblock) String() string {
	return fmt.Sprintf(
		"disk layout information:\n"+
			"1. super block:  block[0]\n"+
			"2. inode bitmap: block[%d - %d]\n"+
			"3. inode region: block[%d - %d]\n"+
			"4. data bitmap:  block[%d - %d]\n"+
			"5. data region:  block[%d - %d]\n"+
			"block size = %d byte, total size = %d MB, total inodes = %d\n",
		sb.InodeBitmapFirstblock, sb.InodeBitmapFirstblock+sb.InodeBitmapBlocks-1,
		sb.InodeFirstblock, sb.InodeFirstblock+sb.InodeBlocks-1,
		sb.DataBitmapFirstblock, sb.DataBitmapFirstblock+sb.DataBitmapBlocks-1,
		sb.DataFirstblock, sb.DataFirstblock+sb.DataBlocks-1,
		sb.BlockSize, uint64(sb.TotalBlocks)*uint64(sb.BlockSize)/1024/1024, sb.TotalInodes,
	)
}
