package corpus

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/todmy/moments-analyzer/pkg/models"
)

func writeCSV(w io.Writer, header []string, rows func(emit func([]string) error) error) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := rows(cw.Write); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteProcessed writes id, text and the pass-through columns
func WriteProcessed(w io.Writer, metaHeader []string, docs []models.ProcessedDocument) error {
	header := append([]string{ColumnID, ColumnText}, metaHeader...)
	return writeCSV(w, header, func(emit func([]string) error) error {
		for _, doc := range docs {
			row := append([]string{strconv.Itoa(doc.ID), doc.Text}, doc.Meta...)
			if err := emit(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteAssignments writes one cluster label per document
func WriteAssignments(w io.Writer, assignments []models.Assignment) error {
	return writeCSV(w, []string{ColumnID, "cluster"}, func(emit func([]string) error) error {
		for _, a := range assignments {
			if err := emit([]string{strconv.Itoa(a.DocID), a.Label()}); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteDocumentTopics writes the dominant topic and the k topic shares of
// every document; excluded documents get the unassigned marker and empty
// shares
func WriteDocumentTopics(w io.Writer, docs []models.DocumentTopics, k int) error {
	header := []string{ColumnID, "topic"}
	for t := 1; t <= k; t++ {
		header = append(header, "topic_"+strconv.Itoa(t))
	}

	return writeCSV(w, header, func(emit func([]string) error) error {
		for _, d := range docs {
			row := make([]string, 2, 2+k)
			row[0] = strconv.Itoa(d.DocID)
			if !d.Assigned {
				row[1] = models.Unassigned
				row = append(row, make([]string, k)...)
			} else {
				row[1] = strconv.Itoa(d.Dominant())
				for t := 0; t < k; t++ {
					share := ""
					if t < len(d.Gamma) {
						share = formatFloat(d.Gamma[t])
					}
					row = append(row, share)
				}
			}
			if err := emit(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteTopicTerms writes the topic-term probability table
func WriteTopicTerms(w io.Writer, terms []models.TopicTerm) error {
	return writeCSV(w, []string{"topic", "term", "beta"}, func(emit func([]string) error) error {
		for _, tt := range terms {
			if err := emit([]string{strconv.Itoa(tt.Topic), tt.Term, formatFloat(tt.Beta)}); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteTermCounts writes the term frequency table
func WriteTermCounts(w io.Writer, counts []models.TermCount) error {
	return writeCSV(w, []string{"term", "count"}, func(emit func([]string) error) error {
		for _, c := range counts {
			if err := emit([]string{c.Term, strconv.Itoa(c.Count)}); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteTermPairs writes the term co-occurrence table
func WriteTermPairs(w io.Writer, pairs []models.TermPair) error {
	return writeCSV(w, []string{"term1", "term2", "count", "correlation"}, func(emit func([]string) error) error {
		for _, p := range pairs {
			row := []string{p.Term1, p.Term2, strconv.Itoa(p.Count), formatFloat(p.Correlation)}
			if err := emit(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteClusterPoints writes the 2-D cluster plot coordinates
func WriteClusterPoints(w io.Writer, points []models.ClusterPoint) error {
	return writeCSV(w, []string{ColumnID, "cluster", "x", "y"}, func(emit func([]string) error) error {
		for _, p := range points {
			row := []string{strconv.Itoa(p.DocID), strconv.Itoa(p.Cluster), formatFloat(p.X), formatFloat(p.Y)}
			if err := emit(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteOutliers writes the outlier score of every document; documents that
// were not scored get the unassigned marker
func WriteOutliers(w io.Writer, outliers []models.Outlier) error {
	return writeCSV(w, []string{ColumnID, "score", "outlier"}, func(emit func([]string) error) error {
		for _, o := range outliers {
			row := []string{strconv.Itoa(o.DocID), models.Unassigned, ""}
			if o.Assigned {
				row[1] = formatFloat(o.Score)
				row[2] = strconv.FormatBool(o.IsOutlier)
			}
			if err := emit(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteFile creates path and hands it to write
func WriteFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
