package models

import "strconv"

// Unassigned marks a document that has no cluster or topic because all of
// its terms were filtered out before partitioning.
const Unassigned = "unassigned"

// Document is one row of the raw corpus
type Document struct {
	ID   int      `json:"id"` // 1-based row order
	Raw  string   `json:"raw"`
	Meta []string `json:"meta,omitempty"` // pass-through columns, header order
}

// ProcessedDocument is a document after cleaning and stem completion
type ProcessedDocument struct {
	ID   int      `json:"id"`
	Text string   `json:"text"`
	Meta []string `json:"meta,omitempty"`
}

// Assignment is the k-means cluster of one document
type Assignment struct {
	DocID    int  `json:"doc_id"`
	Cluster  int  `json:"cluster"` // 1..K, zero when not assigned
	Assigned bool `json:"assigned"`
}

// Label renders the cluster id, or Unassigned
func (a Assignment) Label() string {
	if !a.Assigned {
		return Unassigned
	}
	return strconv.Itoa(a.Cluster)
}

// TopicTerm is one cell of the topic-term probability matrix
type TopicTerm struct {
	Topic int     `json:"topic"`
	Term  string  `json:"term"`
	Beta  float64 `json:"beta"`
}

// DocumentTopics is the topic mixture of one document
type DocumentTopics struct {
	DocID    int       `json:"doc_id"`
	Gamma    []float64 `json:"gamma,omitempty"`
	Assigned bool      `json:"assigned"`
}

// Dominant returns the 1-based topic with the largest share, or 0
func (d DocumentTopics) Dominant() int {
	best, topic := -1.0, 0
	for i, g := range d.Gamma {
		if g > best {
			best, topic = g, i+1
		}
	}
	return topic
}

// TermCount is a term with its corpus frequency
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// TermPair is a pair of terms occurring in the same documents
type TermPair struct {
	Term1       string  `json:"term1"`
	Term2       string  `json:"term2"`
	Count       int     `json:"count"`
	Correlation float64 `json:"correlation"`
}

// ClusterPoint positions a document on the 2-D cluster plot
type ClusterPoint struct {
	DocID   int     `json:"doc_id"`
	Cluster int     `json:"cluster"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// Outlier is the anomaly score of one document against the rest of the
// corpus, in [0,1]
type Outlier struct {
	DocID     int     `json:"doc_id"`
	Score     float64 `json:"score"`
	IsOutlier bool    `json:"is_outlier"`
	Assigned  bool    `json:"assigned"`
}
