package cmd

import (
	"debug/elf"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/optimism/op-service/jsonutil"

	"github.com/W3W-EdU/machine-emulator/machine"
)

var (
	LoadELFPathFlag = &cli.PathFlag{
		Name:      "path",
		Usage:     "path of the RISC-V ELF to load",
		TakesFile: true,
		Required:  true,
	}
	LoadELFOutFlag = &cli.PathFlag{
		Name:      "out",
		Usage:     "path of the machine state JSON to write",
		TakesFile: true,
		Value:     "state.json",
	}
)

func LoadELF(ctx *cli.Context) error {
	elfPath := ctx.Path(LoadELFPathFlag.Name)
	elfProgram, err := elf.Open(elfPath)
	if err != nil {
		return fmt.Errorf("failed to open ELF file %q: %w", elfPath, err)
	}
	defer elfProgram.Close()
	m, err := machine.LoadELF(elfProgram)
	if err != nil {
		return fmt.Errorf("failed to load ELF data into machine state: %w", err)
	}
	return jsonutil.WriteJSON(ctx.Path(LoadELFOutFlag.Name), m, OutFilePerm)
}

var LoadELFCommand = &cli.Command{
	Name:        "load-elf",
	Usage:       "Load a RISC-V ELF into a machine state JSON",
	Description: "Load a RISC-V ELF into a boot machine state and write it as JSON.",
	Action:      LoadELF,
	Flags: []cli.Flag{
		LoadELFPathFlag,
		LoadELFOutFlag,
	},
}
