package cmd

import (
	"encoding/hex"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/bugVanisher/signedvideo/session"
	"github.com/bugVanisher/signedvideo/session/sessiontest"
)

// signFixtureCmd emits a signed Annex B fixture from a literal script over
// the {I,P,i,p,V,S,X,G} alphabet (spec §8), for exercising validate
// against a known-good stream without a real encoder/signer pipeline.
var signFixtureCmd = &cobra.Command{
	Use:   "sign-fixture",
	Short: "Generate a signed Annex B fixture from a GOP script",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		level := session.LevelGOP
		if signFixtureArgs.level == "frame" {
			level = session.LevelFrame
		}

		b := sessiontest.NewBuilder(level)
		units := b.Build(signFixtureArgs.script)

		file, err := os.OpenFile(signFixtureArgs.outFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			return err
		}
		defer file.Close()

		for _, unit := range units {
			if _, err := file.Write(unit); err != nil {
				return err
			}
		}

		log.Info().
			Str("public_key", hex.EncodeToString(b.PublicKey())).
			Str("file", signFixtureArgs.outFile).
			Msg("wrote signed fixture")
		return nil
	},
}

type signFixtureArgsT struct {
	script  string
	outFile string
	level   string
}

var signFixtureArgs signFixtureArgsT

func init() {
	rootCmd.AddCommand(signFixtureCmd)

	signFixtureCmd.Flags().StringVarP(&signFixtureArgs.script, "script", "s", "GIPPGIPPGI", "GOP script over the {I,P,i,p,V,S,X,G} alphabet")
	signFixtureCmd.Flags().StringVarP(&signFixtureArgs.outFile, "file", "f", "", "file to write the fixture to")
	signFixtureCmd.MarkFlagRequired("file")
	signFixtureCmd.Flags().StringVar(&signFixtureArgs.level, "authenticity-level", "gop", "authenticity level: gop or frame")
}
