package tirt

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Row is one pairwise comparison presented to one respondent. Person,
// block, comparison, and item indices are all 1-based; trait columns carry
// the trait labels of the two items.
type Row struct {
	Person     int
	Block      int
	Comparison int // comparison index within the block
	ItemC      int // comparison index across all blocks
	Trait1     string
	Trait2     string
	Item1      int
	Item2      int
	Sign1      float64
	Sign2      float64
	Gamma      []float64 // single offset, or K-1 thresholds for cumulative
	Lambda1    float64
	Lambda2    float64
	Psi1       float64
	Psi2       float64
	Eta1       float64
	Eta2       float64
	Mu         float64
	Probs      []float64 // ordinal category probabilities; nil otherwise
	Response   float64
}

// Metadata records everything needed to reproduce and report on a dataset.
// RunID, Seed, and Replication are stamped by callers that manage seeding.
type Metadata struct {
	RunID           string      `json:"run_id,omitempty"`
	Seed            *int64      `json:"seed,omitempty"`
	Replication     int         `json:"replication,omitempty"`
	NPersons        int         `json:"npersons"`
	NTraits         int         `json:"ntraits"`
	NBlocksPerTrait int         `json:"nblocks_per_trait"`
	NItemsPerBlock  int         `json:"nitems_per_block"`
	NBlocks         int         `json:"nblocks"`
	NItems          int         `json:"nitems"`
	NComparisons    int         `json:"ncomparisons"`
	NCat            int         `json:"ncat"`
	Family          Family      `json:"family"`
	BlockMode       BlockMode   `json:"block_mode"`
	TraitLabels     []string    `json:"traits"`
	BlockTraits     [][]string  `json:"block_traits"`
	Signs           []float64   `json:"signs"`
	Lambda          []float64   `json:"lambda"`
	Psi             []float64   `json:"psi"`
	Gamma           [][]float64 `json:"gamma"`
	Eta             [][]float64 `json:"eta"`
}

// Dataset is the immutable long-format simulation output plus its metadata.
type Dataset struct {
	Rows []Row
	Meta Metadata
}

// csvHeader is the column order of WriteCSV.
var csvHeader = []string{
	"person", "block", "comparison", "itemC", "trait1", "trait2",
	"item1", "item2", "sign1", "sign2", "gamma",
	"lambda1", "lambda2", "psi1", "psi2", "eta1", "eta2", "mu", "response",
}

// WriteCSV writes the rows in long format. Multi-threshold gamma renders
// semicolon-joined; responses of discrete families render as integers.
func (ds *Dataset) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	discrete := ds.Meta.Family.Discrete()
	for i := range ds.Rows {
		r := &ds.Rows[i]
		record := []string{
			strconv.Itoa(r.Person),
			strconv.Itoa(r.Block),
			strconv.Itoa(r.Comparison),
			strconv.Itoa(r.ItemC),
			r.Trait1,
			r.Trait2,
			strconv.Itoa(r.Item1),
			strconv.Itoa(r.Item2),
			formatFloat(r.Sign1),
			formatFloat(r.Sign2),
			joinFloats(r.Gamma, ";"),
			formatFloat(r.Lambda1),
			formatFloat(r.Lambda2),
			formatFloat(r.Psi1),
			formatFloat(r.Psi2),
			formatFloat(r.Eta1),
			formatFloat(r.Eta2),
			formatFloat(r.Mu),
			formatResponse(r.Response, discrete),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMetadataJSON writes the dataset metadata as indented JSON.
func (ds *Dataset) WriteMetadataJSON(w io.Writer) error {
	data, err := json.MarshalIndent(ds.Meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}
	return nil
}

// Summary displays dataset counts and the response distribution.
func (ds *Dataset) Summary(w io.Writer) {
	fmt.Fprintln(w, "=== Dataset Summary ===")
	fmt.Fprintf(w, "Persons              : %d\n", ds.Meta.NPersons)
	fmt.Fprintf(w, "Traits               : %d\n", ds.Meta.NTraits)
	fmt.Fprintf(w, "Blocks               : %d\n", ds.Meta.NBlocks)
	fmt.Fprintf(w, "Items                : %d\n", ds.Meta.NItems)
	fmt.Fprintf(w, "Comparisons per block: %d\n", ds.Meta.NComparisons)
	fmt.Fprintf(w, "Rows                 : %d\n", len(ds.Rows))
	fmt.Fprintf(w, "Family               : %s\n", ds.Meta.Family)
	if len(ds.Rows) == 0 {
		return
	}
	if ds.Meta.Family.Discrete() {
		counts := make([]int, ds.Meta.NCat)
		for i := range ds.Rows {
			counts[int(ds.Rows[i].Response)]++
		}
		for k, n := range counts {
			fmt.Fprintf(w, "Response %d           : %d (%.1f%%)\n", k, n, 100*float64(n)/float64(len(ds.Rows)))
		}
		return
	}
	responses := make([]float64, len(ds.Rows))
	for i := range ds.Rows {
		responses[i] = ds.Rows[i].Response
	}
	mean, sd := stat.MeanStdDev(responses, nil)
	fmt.Fprintf(w, "Response mean        : %.4f\n", mean)
	fmt.Fprintf(w, "Response stddev      : %.4f\n", sd)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatResponse(v float64, discrete bool) string {
	if discrete {
		return strconv.Itoa(int(v))
	}
	return formatFloat(v)
}

func joinFloats(vals []float64, sep string) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = formatFloat(v)
	}
	return strings.Join(parts, sep)
}
