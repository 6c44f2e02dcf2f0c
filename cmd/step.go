package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/optimism/op-service/jsonutil"

	"github.com/W3W-EdU/machine-emulator/machine"
	"github.com/W3W-EdU/machine-emulator/verifier"
)

// Transition is the on-disk form of an attested step: both roots and the
// access log witnessing the move between them.
type Transition struct {
	Pre  common.Hash        `json:"pre"`
	Post common.Hash        `json:"post"`
	Log  *machine.AccessLog `json:"log"`
}

var (
	StepOutputFlag = &cli.PathFlag{
		Name:      "proof-output",
		Usage:     "path of the transition JSON to write",
		TakesFile: true,
		Value:     "transition.json",
	}
)

func Step(ctx *cli.Context) error {
	l := runLogger(ctx)

	m, err := jsonutil.LoadJSON[machine.Machine](ctx.Path(RunInputFlag.Name))
	if err != nil {
		return fmt.Errorf("failed to load machine state: %w", err)
	}

	pre := m.MerkleRoot()
	accessLog, err := m.Step()
	if err != nil {
		return err
	}
	post := m.MerkleRoot()

	// the step already replayed its own log; re-check through the public
	// entry point before anything is written out
	if err := verifier.VerifyStepTransition(pre, accessLog, post); err != nil {
		return fmt.Errorf("produced an access log that does not replay: %w", err)
	}

	l.Info("stepped",
		"cycle", m.Mcycle(),
		"accesses", len(accessLog.Accesses),
		"pre", pre,
		"post", post,
	)

	out := &Transition{Pre: pre, Post: post, Log: accessLog}
	if err := jsonutil.WriteJSON(ctx.Path(StepOutputFlag.Name), out, OutFilePerm); err != nil {
		return fmt.Errorf("failed to write transition: %w", err)
	}
	if err := jsonutil.WriteJSON(ctx.Path(RunOutputFlag.Name), m, OutFilePerm); err != nil {
		return fmt.Errorf("failed to write state output: %w", err)
	}
	return nil
}

var StepCommand = &cli.Command{
	Name:        "step",
	Usage:       "Advance the machine one attested cycle.",
	Description: "Advance the machine one cycle through the logging state access and write the pre/post roots with the access log.",
	Action:      Step,
	Flags: []cli.Flag{
		RunInputFlag,
		RunOutputFlag,
		StepOutputFlag,
		LogFileFlag,
	},
}
