package searchrl

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// EpisodeStats are the statistics of one self-played episode.
type EpisodeStats struct {
	Episode  int
	Moves    int
	Examples int
	Nodes    int // size of the search tree at the end of the episode
	Reward   float32
	Duration time.Duration
}

type Statistics struct {
	Episodes []EpisodeStats
	Outcomes map[string]int // number of episodes by terminal reward
}

func makeStatistics() Statistics {
	return Statistics{
		Episodes: make([]EpisodeStats, 0, 64),
		Outcomes: make(map[string]int),
	}
}

func (s *Statistics) update(es EpisodeStats) {
	s.Episodes = append(s.Episodes, es)
	s.Outcomes[outcome(es.Reward)]++
}

// MeanLength is the average number of moves per episode.
func (s *Statistics) MeanLength() float64 {
	if len(s.Episodes) == 0 {
		return 0
	}
	var total int
	for _, es := range s.Episodes {
		total += es.Moves
	}
	return float64(total) / float64(len(s.Episodes))
}

// Dump writes one CSV record per episode into filename.
func (s *Statistics) Dump(filename string) error {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write([]string{"episode", "moves", "examples", "nodes", "reward", "duration_ms"}); err != nil {
		return errors.WithStack(err)
	}
	records := make([][]string, 0, len(s.Episodes))
	for _, es := range s.Episodes {
		records = append(records, []string{
			strconv.Itoa(es.Episode),
			strconv.Itoa(es.Moves),
			strconv.Itoa(es.Examples),
			strconv.Itoa(es.Nodes),
			strconv.FormatFloat(float64(es.Reward), 'f', 3, 32),
			strconv.FormatInt(es.Duration.Milliseconds(), 10),
		})
	}
	// WriteAll flushes
	if err := w.WriteAll(records); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func outcome(reward float32) string { return fmt.Sprintf("%v", reward) }
