// Command gptctl inspects and repairs GUID Partition Tables on disk image
// files.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v2"

	"github.com/gptkit/gptkit/gpt"
	"github.com/gptkit/gptkit/internal/filedisk"
)

const (
	fileFlag       = "file"
	sectorSizeFlag = "sector-size-log2"
	verboseFlag    = "verbose"
)

func main() {
	app := cli.NewApp()
	app.Name = "gptctl"
	app.Usage = "read, validate, repair, and write GUID Partition Tables"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:     fileFlag,
			Aliases:  []string{"f"},
			Usage:    "disk image file",
			Required: true,
		},
		&cli.UintFlag{
			Name:  sectorSizeFlag,
			Usage: "log2 of the logical sector size",
			Value: 9,
		},
		&cli.BoolFlag{
			Name:  verboseFlag,
			Usage: "enable debug logging",
		},
	}
	app.Before = func(cliCtx *cli.Context) error {
		if cliCtx.Bool(verboseFlag) {
			logrus.SetLevel(logrus.DebugLevel)
		}
		return nil
	}
	app.Commands = []*cli.Command{
		{
			Name:   "show",
			Usage:  "print the GPT status and both headers",
			Action: actionShow,
		},
		{
			Name:   "repair",
			Usage:  "reconstruct and write back a missing or invalid GPT copy",
			Action: actionRepair,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openDisk(cliCtx *cli.Context) (*filedisk.Disk, error) {
	log2 := uint8(cliCtx.Uint(sectorSizeFlag))
	return filedisk.Open(cliCtx.String(fileFlag), log2)
}

func actionShow(cliCtx *cli.Context) error {
	disk, err := openDisk(cliCtx)
	if err != nil {
		return err
	}
	defer disk.Close()

	s, err := gpt.Load(context.Background(), disk)
	if err != nil {
		return err
	}

	fmt.Printf("status: %s\n", s.Status)
	fmt.Printf("primary header: lba=%d alternate=%d disk_guid=%s\n",
		s.PrimaryHeader.HeaderLBA, s.PrimaryHeader.AlternateLBA, gpt.GuidToStr(s.PrimaryHeader.DiskGUID))
	fmt.Printf("backup header:  lba=%d alternate=%d disk_guid=%s\n",
		s.BackupHeader.HeaderLBA, s.BackupHeader.AlternateLBA, gpt.GuidToStr(s.BackupHeader.DiskGUID))
	return nil
}

func actionRepair(cliCtx *cli.Context) error {
	disk, err := openDisk(cliCtx)
	if err != nil {
		return err
	}
	defer disk.Close()

	s, err := gpt.Load(context.Background(), disk)
	if err != nil {
		return err
	}
	if s.Status.BothValid() {
		logrus.Info("gptctl: both GPT copies are already valid, nothing to repair")
		return nil
	}
	if err := gpt.Repair(disk, s); err != nil {
		return err
	}
	if err := gpt.Write(disk, s); err != nil {
		return err
	}
	logrus.Info("gptctl: repaired and wrote both GPT copies")
	return nil
}
