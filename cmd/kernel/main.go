// Command kernel boots a simulated kernel against a disk image: it loads
// the superblock, starts one process running a trivial init payload, and
// starts the per-CPU scheduler loops (spec.md §4.4/§4.5, §6 boot sequence).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gubingren0409/biglab4/fs"
	"github.com/gubingren0409/biglab4/kernel"
	"github.com/gubingren0409/biglab4/proc"
)

func main() {
	diskPath := flag.String("disk", "", "path to a disk image built by cmd/mkfs")
	flag.Parse()

	var disk fs.Disk_i
	if *diskPath == "" {
		fmt.Println("kernel: -disk not given, booting against an in-memory scratch disk")
		disk = scratchDisk()
	} else {
		f, err := os.Open(*diskPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "kernel: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		d, err := loadDisk(f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "kernel: %v\n", err)
			os.Exit(1)
		}
		disk = d
	}

	k := kernel.NewKernel()
	init := proc.Body(func(p *proc.Proc) {
		fmt.Printf("kernel: init (pid %d) running\n", p.Pid)
		/// init never returns: a Body that returns calls Exit, and init
		/// exiting is a fatal panic.
		for {
			p.Yield()
		}
	})

	if _, err := k.Boot(disk, init); err != nil {
		kernel.Kpanic(err.Error())
	}

	fmt.Printf("kernel: booted, superblock:\n%s", k.Superblock.String())

	/// the scheduler loops started by Boot run forever in the background;
	/// block here the way a real kernel's boot processor halts into the
	/// idle loop after handing off to the scheduler.
	select {}
}

/// scratchDisk builds a minimal valid disk image entirely in memory, for
/// running the kernel without a prebuilt image on disk.
func scratchDisk() fs.Disk_i {
	disk := fs.NewMemDisk(64)
	sb := &fs.Superblock{
		Magic:                 fs.FS_MAGIC,
		BlockSize:             uint32(fs.BSIZE),
		TotalBlocks:           64,
		TotalInodes:           16,
		InodeBitmapFirstblock: 1,
		InodeBitmapBlocks:     1,
		InodeFirstblock:       2,
		InodeBlocks:           4,
		DataBitmapFirstblock:  6,
		DataBitmapBlocks:      1,
		DataFirstblock:        7,
		DataBlocks:            57,
	}
	disk.WriteBlock(fs.FS_SB_BLOCK, sb.Encode())
	return disk
}

/// loadDisk slurps a disk image file into an in-memory disk; a placeholder
/// block device until a real block-device backend is wired in, matching
/// spec.md §6's narrow Disk_i contract.
func loadDisk(f *os.File) (fs.Disk_i, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	nblocks := int(info.Size()) / fs.BSIZE
	disk := fs.NewMemDisk(nblocks)
	buf := make([]byte, fs.BSIZE)
	for b := 0; b < nblocks; b++ {
		if _, err := f.ReadAt(buf, int64(b*fs.BSIZE)); err != nil {
			return nil, err
		}
		disk.WriteBlock(b, buf)
	}
	return disk, nil
}
