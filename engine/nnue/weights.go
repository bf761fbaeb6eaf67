package nnue

import (
	"encoding/binary"
	"io"
	"math/rand"
)

// Weights holds the feature transformer and output layer of a single
// L1->out network. The two-hidden-layer L1->L2->L3->out variant named
// in the original spec as an alternative architecture isn't carried
// over: nothing in this repository's scope needs the extra accuracy,
// and a second quantised architecture would double the loader/forward
// pass surface for no behavioural difference observable through USI.
type Weights struct {
	// FTWeights[feature][l1] and FTBiases[l1] are the feature
	// transformer: Accumulator = FTBiases + sum of active features' rows.
	FTWeights []int16
	FTBiases  []int16

	// L1Weights has one row per perspective (stm, nstm), each L1Size
	// wide, plus a shared bias, per the "two rows, one per perspective"
	// contract in the data model.
	L1Weights [2][]int16
	L1Bias    int32
}

func NewWeights() *Weights {
	return &Weights{
		FTWeights: make([]int16, NumFeatures*L1Size),
		FTBiases:  make([]int16, L1Size),
		L1Weights: [2][]int16{make([]int16, L1Size), make([]int16, L1Size)},
	}
}

// RandomInit seeds the weights deterministically so a freshly built
// binary has a usable (if untrained) evaluator: small enough magnitude
// that SCReLU doesn't saturate, and deterministic so two builds produce
// identical play without shipping a trained weights file in the repo.
func (w *Weights) RandomInit(seed int64) {
	r := rand.New(rand.NewSource(seed))
	for i := range w.FTWeights {
		w.FTWeights[i] = int16(r.Intn(256) - 128)
	}
	for i := range w.FTBiases {
		w.FTBiases[i] = 0
	}
	for p := 0; p < 2; p++ {
		for i := range w.L1Weights[p] {
			w.L1Weights[p][i] = int16(r.Intn(64) - 32)
		}
	}
	w.L1Bias = 0
}

// Load reads a weights blob in the wire format implied by the
// quantisation constants: FT weights, FT biases, then the two L1
// weight rows and bias, all little-endian, matching the io helpers the
// rest of the corpus's NNUE ports use for Stockfish-style files.
func (w *Weights) Load(r io.Reader) error {
	if err := binary.Read(r, binary.LittleEndian, w.FTWeights); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, w.FTBiases); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, w.L1Weights[0]); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, w.L1Weights[1]); err != nil {
		return err
	}
	return binary.Read(r, binary.LittleEndian, &w.L1Bias)
}

func (w *Weights) Save(wr io.Writer) error {
	if err := binary.Write(wr, binary.LittleEndian, w.FTWeights); err != nil {
		return err
	}
	if err := binary.Write(wr, binary.LittleEndian, w.FTBiases); err != nil {
		return err
	}
	if err := binary.Write(wr, binary.LittleEndian, w.L1Weights[0]); err != nil {
		return err
	}
	if err := binary.Write(wr, binary.LittleEndian, w.L1Weights[1]); err != nil {
		return err
	}
	return binary.Write(wr, binary.LittleEndian, w.L1Bias)
}

// defaultWeights is lazily initialised on first use so importing the
// package without ever evaluating a position doesn't pay the init cost.
var defaultWeights *Weights

func getDefaultWeights() *Weights {
	if defaultWeights == nil {
		defaultWeights = NewWeights()
		defaultWeights.RandomInit(0xD1CE5EED)
	}
	return defaultWeights
}
