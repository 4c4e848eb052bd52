package types

import (
	"github.com/gnosisguild/crisp-go/types"
	abytes "github.com/gnosisguild/crisp-go/types/bytes"
)

// E3Config is the fixed part of every computation request the voting
// controller makes. It is set at genesis.
type E3Config struct {
	Program       types.Address   `json:"program"`
	Threshold     [2]uint32       `json:"threshold"` // M of N
	ProgramParams abytes.HexBytes `json:"programParams"`
	ComputeParams abytes.HexBytes `json:"computeParams"`
}

// E3Request asks the computation provider to run the configured program
// over the ballots submitted within one voting window.
type E3Request struct {
	Program       types.Address
	Threshold     [2]uint32
	StartWindow   [2]uint64 // acceptable activation range, unix seconds
	Duration      uint64    // seconds the computation accepts inputs
	ProgramParams abytes.HexBytes
	ComputeParams abytes.HexBytes
}

// RequestFor builds the request for a voting window of [start, end].
// startWindow may come from the proposal's extra payload; a zero window
// defaults to activation exactly at start.
func (c *E3Config) RequestFor(start, end uint64, startWindow [2]uint64) *E3Request {
	if startWindow[0] == 0 && startWindow[1] == 0 {
		startWindow = [2]uint64{start, start}
	}
	return &E3Request{
		Program:       c.Program,
		Threshold:     c.Threshold,
		StartWindow:   startWindow,
		Duration:      end - start,
		ProgramParams: c.ProgramParams,
		ComputeParams: c.ComputeParams,
	}
}

// E3Result is the published outcome of one computation.
// Output is the program's plaintext output; Submissions is the number of
// inputs the computation consumed.
type E3Result struct {
	Output      abytes.HexBytes `json:"output"`
	Submissions uint64          `json:"submissions"`
}
