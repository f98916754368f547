package pipeline

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
)

// Sample is one sequenced sample to run through the sweep.
type Sample struct {
	Name           string
	Bam            string
	MappedReads    int      // counted from Bam when 0
	AmpliconTables []string // per-amplicon read count tables for an empirical coverage table
}

// Manifest lists the samples of a run.
type Manifest struct {
	Samples []Sample
}

// Validate checks that every sample has a unique name and an alignment file.
func (m Manifest) Validate() error {
	if len(m.Samples) == 0 {
		return errors.New("manifest has no samples")
	}
	seen := make(map[string]bool)
	for _, s := range m.Samples {
		if s.Name == "" || s.Bam == "" {
			return errors.Errorf("manifest sample %q is missing a name or alignment file", s.Name)
		}
		if seen[s.Name] {
			return errors.Errorf("sample %s is listed more than once", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

// ReadManifest reads a tab separated manifest with one sample per line:
//
//	name  bam  [mapped_reads]  [amplicon_table,amplicon_table,...]
//
// Lines beginning with '#' are skipped. A mapped_reads of 0 or "." means the
// reads are counted from the bam.
func ReadManifest(filename string) (Manifest, error) {
	var m Manifest
	f, err := os.Open(filename)
	if err != nil {
		return m, errors.Wrap(err, "reading manifest")
	}
	err = f.Close()
	exception.PanicOnErr(err)
	file := fileio.EasyOpen(filename)
	defer func() {
		err := file.Close()
		exception.PanicOnErr(err)
	}()

	var lineNum int
	for line, done := fileio.EasyNextRealLine(file); !done; line, done = fileio.EasyNextRealLine(file) {
		lineNum++
		if strings.TrimSpace(line) == "" {
			continue
		}
		s, err := parseSample(line)
		if err != nil {
			return Manifest{}, errors.Wrapf(err, "%s line %d", filename, lineNum)
		}
		m.Samples = append(m.Samples, s)
	}
	return m, m.Validate()
}

func parseSample(line string) (Sample, error) {
	words := strings.Split(line, "\t")
	if len(words) < 2 || len(words) > 4 {
		return Sample{}, fmt.Errorf("expected 2 to 4 tab separated fields, found %d", len(words))
	}
	s := Sample{Name: words[0], Bam: words[1]}
	if len(words) > 2 && words[2] != "." && words[2] != "" {
		n, err := strconv.Atoi(words[2])
		if err != nil || n < 0 {
			return Sample{}, fmt.Errorf("mapped reads %q is not a non-negative integer", words[2])
		}
		s.MappedReads = n
	}
	if len(words) > 3 && words[3] != "." && words[3] != "" {
		s.AmpliconTables = strings.Split(words[3], ",")
	}
	return s, nil
}
