package cmd

import (
	"crypto/ed25519"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/bugVanisher/signedvideo/nalu"
	"github.com/bugVanisher/signedvideo/session"
)

// ed25519Verifier is the concrete session.Verifier the CLI plugs in
// (spec §1 "out of scope: concrete cryptographic primitives" — a
// production caller can swap this for its own ECDSA stack without
// touching session).
type ed25519Verifier struct{}

func (ed25519Verifier) Verify(publicKey, message, signature []byte) (bool, error) {
	if len(publicKey) != ed25519.PublicKeySize {
		return false, nil
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey), message, signature), nil
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a signed Annex B coded-video file",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		codec := nalu.H264
		if validateArgs.codec == "h265" {
			codec = nalu.H265
		}

		s := session.New(codec, ed25519Verifier{}, log.Logger)
		if validateArgs.level == "frame" {
			s.SetAuthenticityLevel(session.LevelFrame)
		} else {
			s.SetAuthenticityLevel(session.LevelGOP)
		}

		data, err := os.ReadFile(validateArgs.inFile)
		if err != nil {
			return err
		}

		for _, unit := range splitAnnexB(data) {
			latest, err := s.AddUnitAndAuthenticate(unit)
			if err != nil {
				return err
			}
			if latest != nil {
				printReport(latest)
			}
		}

		for _, latest := range s.Flush() {
			printReport(latest)
		}
		return nil
	},
}

func printReport(r interface{ MarshalReport() ([]byte, error) }) {
	data, err := r.MarshalReport()
	if err != nil {
		log.Error().Err(err).Msg("marshal report")
		return
	}
	fmt.Println(string(data))
}

// splitAnnexB walks data and returns one Annex B coded unit (start code
// plus body) at a time, the way the teacher's SplitNALUs framing
// detection walks a raw stream buffer in
// media/codec/h264parser/parser.go.
func splitAnnexB(data []byte) [][]byte {
	starts := findStartCodes(data)
	units := make([][]byte, 0, len(starts))
	for i, start := range starts {
		end := len(data)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		units = append(units, data[start:end])
	}
	return units
}

func findStartCodes(data []byte) []int {
	var starts []int
	for i := 0; i+3 <= len(data); i++ {
		if data[i] == 0 && data[i+1] == 0 && data[i+2] == 1 {
			start := i
			if i > 0 && data[i-1] == 0 {
				start = i - 1 // 4-byte start code 00 00 00 01
			}
			starts = append(starts, start)
		}
	}
	return starts
}

type validateArgsT struct {
	inFile string
	codec  string
	level  string
}

var validateArgs validateArgsT

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateArgs.inFile, "file", "f", "", "Annex B coded-video file to validate")
	validateCmd.MarkFlagRequired("file")
	validateCmd.Flags().StringVar(&validateArgs.codec, "codec", "h264", "coded-video codec: h264 or h265")
	validateCmd.Flags().StringVar(&validateArgs.level, "authenticity-level", "gop", "authenticity level: gop or frame")
}
