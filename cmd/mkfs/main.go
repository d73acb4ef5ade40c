// Command mkfs builds a disk image with the on-disk superblock layout
// spec.md §6 names, adapted from the teacher's mkfs tool (which built a full
// inode-tree image) down to exactly what this spec's filesystem surface
// needs: block zero holding a valid, magic-stamped Superblock and a
// zero-filled data region behind it.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gubingren0409/biglab4/fs"
)

func main() {
	out := flag.String("o", "disk.img", "output disk image path")
	totalBlocks := flag.Uint("blocks", 4096, "total blocks in the image")
	totalInodes := flag.Uint("inodes", 1024, "total inodes described by the layout")
	flag.Parse()

	sb := layout(uint32(*totalBlocks), uint32(*totalInodes))

	f, err := os.Create(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mkfs: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	if err := write(f, sb); err != nil {
		fmt.Fprintf(os.Stderr, "mkfs: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("mkfs: wrote %s\n%s", *out, sb.String())
}

/// layout partitions totalBlocks into the inode-bitmap, inode, data-bitmap,
/// and data regions spec.md §6 names, mirroring the original kernel's
/// mkfs layout arithmetic (one bitmap block per 8*BSIZE inodes/blocks it
/// covers, rounded up).
func layout(totalBlocks, totalInodes uint32) *fs.Superblock {
	bitsPerBlock := uint32(fs.BSIZE * 8)

	inodeBitmapBlocks := (totalInodes + bitsPerBlock - 1) / bitsPerBlock
	if inodeBitmapBlocks == 0 {
		inodeBitmapBlocks = 1
	}
	inodeBitmapFirst := uint32(1) /// block 0 is the superblock

	const inodesPerBlock = uint32(fs.BSIZE / 64) /// 64 bytes/inode, grounded on original_source's fixed inode record size
	inodeBlocks := (totalInodes + inodesPerBlock - 1) / inodesPerBlock
	inodeFirst := inodeBitmapFirst + inodeBitmapBlocks

	used := inodeFirst + inodeBlocks
	dataBlocksGuess := totalBlocks - used - 1 /// reserve one block for the data bitmap
	dataBitmapBlocks := (dataBlocksGuess + bitsPerBlock - 1) / bitsPerBlock
	if dataBitmapBlocks == 0 {
		dataBitmapBlocks = 1
	}
	dataBitmapFirst := used
	dataFirst := dataBitmapFirst + dataBitmapBlocks
	dataBlocks := totalBlocks - dataFirst

	return &fs.Superblock{
		Magic:                 fs.FS_MAGIC,
		BlockSize:             uint32(fs.BSIZE),
		TotalBlocks:           totalBlocks,
		TotalInodes:           totalInodes,
		InodeBitmapFirstblock: inodeBitmapFirst,
		InodeBitmapBlocks:     inodeBitmapBlocks,
		InodeFirstblock:       inodeFirst,
		InodeBlocks:           inodeBlocks,
		DataBitmapFirstblock:  dataBitmapFirst,
		DataBitmapBlocks:      dataBitmapBlocks,
		DataFirstblock:        dataFirst,
		DataBlocks:            dataBlocks,
	}
}

/// write lays out the superblock at block zero and zero-fills every
/// remaining block described by sb.TotalBlocks.
func write(f *os.File, sb *fs.Superblock) error {
	zero := make([]byte, fs.BSIZE)
	block0 := sb.Encode()
	copy(zero, block0)
	if _, err := f.WriteAt(zero, 0); err != nil {
		return err
	}
	for b := uint32(1); b < sb.TotalBlocks; b++ {
		if _, err := f.WriteAt(make([]byte, fs.BSIZE), int64(b)*int64(fs.BSIZE)); err != nil {
			return err
		}
	}
	return nil
}
