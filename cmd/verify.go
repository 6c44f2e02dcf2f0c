package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/optimism/op-service/jsonutil"

	"github.com/W3W-EdU/machine-emulator/verifier"
)

var (
	VerifyInputFlag = &cli.PathFlag{
		Name:      "input",
		Usage:     "path of the transition JSON to verify",
		TakesFile: true,
		Value:     "transition.json",
	}
	VerifyTypeFlag = &cli.StringFlag{
		Name:  "type",
		Usage: "kind of transition to verify: step, reset or cmio",
		Value: "step",
	}
	VerifyReasonFlag = &cli.UintFlag{
		Name:  "reason",
		Usage: "cmio response reason",
	}
	VerifyDataFlag = &cli.StringFlag{
		Name:  "data",
		Usage: "cmio response data, hex encoded",
		Value: "0x",
	}
)

func Verify(ctx *cli.Context) error {
	l := runLogger(ctx)

	transition, err := jsonutil.LoadJSON[Transition](ctx.Path(VerifyInputFlag.Name))
	if err != nil {
		return fmt.Errorf("failed to load transition: %w", err)
	}

	switch kind := ctx.String(VerifyTypeFlag.Name); kind {
	case "step":
		err = verifier.VerifyStepTransition(transition.Pre, transition.Log, transition.Post)
	case "reset":
		err = verifier.VerifyResetTransition(transition.Pre, transition.Log, transition.Post)
	case "cmio":
		var data []byte
		data, err = hexutil.Decode(ctx.String(VerifyDataFlag.Name))
		if err != nil {
			return fmt.Errorf("invalid cmio data: %w", err)
		}
		err = verifier.VerifyCmioResponseTransition(uint16(ctx.Uint(VerifyReasonFlag.Name)), data,
			transition.Pre, transition.Log, transition.Post)
	default:
		return fmt.Errorf("unknown transition type %q", kind)
	}
	if err != nil {
		return fmt.Errorf("transition rejected: %w", err)
	}

	l.Info("transition verified",
		"pre", transition.Pre,
		"post", transition.Post,
		"accesses", len(transition.Log.Accesses),
	)
	return nil
}

var VerifyCommand = &cli.Command{
	Name:        "verify",
	Usage:       "Verify an attested transition.",
	Description: "Replay an access log against its pre root and check it reproduces the claimed post root.",
	Action:      Verify,
	Flags: []cli.Flag{
		VerifyInputFlag,
		VerifyTypeFlag,
		VerifyReasonFlag,
		VerifyDataFlag,
		LogFileFlag,
	},
}
