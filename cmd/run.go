package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/profile"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/optimism/op-service/jsonutil"

	"github.com/W3W-EdU/machine-emulator/machine"
)

var OutFilePerm = os.FileMode(0o755)

var (
	RunInputFlag = &cli.PathFlag{
		Name:      "input",
		Usage:     "path of the machine state JSON to load",
		TakesFile: true,
		Value:     "state.json",
	}
	RunOutputFlag = &cli.PathFlag{
		Name:      "output",
		Usage:     "path of the machine state JSON to write when done",
		TakesFile: true,
		Value:     "out.json",
	}
	RunStopAtFlag = &cli.Uint64Flag{
		Name:  "stop-at",
		Usage: "mcycle value to stop at, in addition to halt and yield",
		Value: ^uint64(0),
	}
	RunInfoAtFlag = &cli.Uint64Flag{
		Name:  "info-at",
		Usage: "cycle interval to log progress at",
		Value: 10_000_000,
	}
	RunPProfCPU = &cli.BoolFlag{
		Name:  "pprof.cpu",
		Usage: "enable pprof cpu profiling",
	}
	LogFileFlag = &cli.PathFlag{
		Name:      "log.file",
		Usage:     "log to a rotating file instead of stderr",
		TakesFile: true,
	}
)

func runLogger(ctx *cli.Context) log.Logger {
	if path := ctx.Path(LogFileFlag.Name); path != "" {
		return FileLogger(path, log.LevelInfo)
	}
	return Logger(os.Stderr, log.LevelInfo)
}

func Run(ctx *cli.Context) error {
	if ctx.Bool(RunPProfCPU.Name) {
		defer profile.Start(profile.NoShutdownHook, profile.ProfilePath("."), profile.CPUProfile).Stop()
	}

	l := runLogger(ctx)

	m, err := jsonutil.LoadJSON[machine.Machine](ctx.Path(RunInputFlag.Name))
	if err != nil {
		return fmt.Errorf("failed to load machine state: %w", err)
	}

	stopAt := ctx.Uint64(RunStopAtFlag.Name)
	infoAt := ctx.Uint64(RunInfoAtFlag.Name)
	if infoAt == 0 {
		infoAt = 1
	}

	start := time.Now()
	startCycle := m.Mcycle()

	for !m.Halted() && !m.Yielded() && m.Mcycle() < stopAt {
		if err := ctx.Context.Err(); err != nil {
			return err
		}
		next := m.Mcycle() + infoAt
		if next > stopAt {
			next = stopAt
		}
		m.Run(next)

		delta := time.Since(start)
		l.Info("processing",
			"cycle", m.Mcycle(),
			"pc", HexU32(uint32(m.PC())),
			"insn", HexU32(m.Instr()),
			"ips", float64(m.Mcycle()-startCycle)/(float64(delta)/float64(time.Second)),
			"pages", m.PageCount(),
			"mem", m.Usage(),
		)
	}

	l.Info("done",
		"halted", m.Halted(),
		"yielded", m.Yielded(),
		"cycle", m.Mcycle(),
		"instret", m.Minstret(),
		"root", m.MerkleRoot(),
	)

	if err := jsonutil.WriteJSON(ctx.Path(RunOutputFlag.Name), m, OutFilePerm); err != nil {
		return fmt.Errorf("failed to write state output: %w", err)
	}
	return nil
}

var RunCommand = &cli.Command{
	Name:        "run",
	Usage:       "Run the machine until it halts, yields or hits the cycle bound.",
	Description: "Run the machine the fast way, without proof generation, and write the resulting state.",
	Action:      Run,
	Flags: []cli.Flag{
		RunInputFlag,
		RunOutputFlag,
		RunStopAtFlag,
		RunInfoAtFlag,
		RunPProfCPU,
		LogFileFlag,
	},
}
