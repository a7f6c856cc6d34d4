package pursuit

import (
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/zeu5/pursuit-rl/store"
	"github.com/zeu5/pursuit-rl/types"
	"github.com/zeu5/pursuit-rl/util"
	"gonum.org/v1/gonum/stat"
)

// SeriesDataSet holds one value per episode
type SeriesDataSet []float64

// SeriesAnalyzer reduces every trace to a single number. A cumulative
// analyzer adds each value to the previous one.
type SeriesAnalyzer struct {
	metric     func(*types.Trace) float64
	cumulative bool
	values     SeriesDataSet
}

var _ types.Analyzer = &SeriesAnalyzer{}

func NewSeriesAnalyzer(metric func(*types.Trace) float64) *SeriesAnalyzer {
	return &SeriesAnalyzer{metric: metric, values: make(SeriesDataSet, 0)}
}

func NewCumulativeAnalyzer(metric func(*types.Trace) float64) *SeriesAnalyzer {
	return &SeriesAnalyzer{metric: metric, cumulative: true, values: make(SeriesDataSet, 0)}
}

// EpisodeRewardAnalyzer records the return of every episode
func EpisodeRewardAnalyzer() *SeriesAnalyzer {
	return NewSeriesAnalyzer(func(t *types.Trace) float64 {
		return t.TotalReward()
	})
}

// EpisodeLengthAnalyzer records the number of steps of every episode
func EpisodeLengthAnalyzer() *SeriesAnalyzer {
	return NewSeriesAnalyzer(func(t *types.Trace) float64 {
		return float64(t.Len())
	})
}

// CaptureAnalyzer records how many adversaries were caught in every episode
func CaptureAnalyzer() *SeriesAnalyzer {
	return NewSeriesAnalyzer(func(t *types.Trace) float64 {
		return float64(Captures(t))
	})
}

func (s *SeriesAnalyzer) Analyze(_, _ int, _ string, trace *types.Trace) {
	v := s.metric(trace)
	if s.cumulative && len(s.values) > 0 {
		v += s.values[len(s.values)-1]
	}
	s.values = append(s.values, v)
}

func (s *SeriesAnalyzer) DataSet() types.DataSet {
	out := make(SeriesDataSet, len(s.values))
	copy(out, s.values)
	return out
}

func (s *SeriesAnalyzer) Reset() {
	s.values = make(SeriesDataSet, 0)
}

// Captures sums the captures over the steps of a trace
func Captures(t *types.Trace) int {
	total := 0
	for i := 0; i < t.Len(); i++ {
		_, _, _, ns, _ := t.Get(i)
		if s, ok := ns.(*State); ok {
			total += s.Captured
		}
	}
	return total
}

// SeriesComparator saves every series as JSON, plots them side by side and
// prints the mean of the last ten episodes of each experiment
func SeriesComparator(savePath, metric string) types.Comparator {
	return func(run int, names []string, datasets []types.DataSet) error {
		if err := os.MkdirAll(savePath, os.ModePerm); err != nil {
			return err
		}
		series := make([][]float64, len(names))
		dump := make(map[string][]float64)
		for i, name := range names {
			values := datasets[i].(SeriesDataSet)
			series[i] = values
			dump[name] = values
			tail := values
			if len(tail) > 10 {
				tail = tail[len(tail)-10:]
			}
			if len(tail) > 0 {
				fmt.Printf("%s for %s: last %d avg %.2f\n", metric, name, len(tail), stat.Mean(tail, nil))
			}
		}
		prefix := path.Join(savePath, strconv.Itoa(run)+"_"+metric)
		if err := util.WriteJSON(prefix+".json", dump); err != nil {
			return err
		}
		return types.PlotSeries(prefix+".png", "Comparison", metric, names, series)
	}
}

// StoreRecorder saves a summary of every analyzed episode to an episode store
type StoreRecorder struct {
	store  store.EpisodeStore
	runID  string
	saved  int
	err    error
	totals map[string][]float64
	logger *log.Logger
}

var _ types.Analyzer = &StoreRecorder{}

func NewStoreRecorder(s store.EpisodeStore, runID string) *StoreRecorder {
	return &StoreRecorder{
		store:  s,
		runID:  runID,
		totals: make(map[string][]float64),
		logger: log.New(os.Stderr, "[store] ", log.LstdFlags),
	}
}

// Record builds the summary of one episode
func (r *StoreRecorder) Record(run, episode int, experiment string, trace *types.Trace) store.EpisodeRecord {
	total := trace.TotalReward()
	key := experiment + "/" + strconv.Itoa(run)
	window := append(r.totals[key], total)
	if len(window) > 10 {
		window = window[len(window)-10:]
	}
	r.totals[key] = window
	return store.EpisodeRecord{
		RunID:         r.runID,
		Experiment:    experiment,
		Episode:       episode,
		TotalReward:   total,
		Steps:         trace.Len(),
		Captures:      Captures(trace),
		Success:       AllAdversariesCaught(trace),
		AverageLast10: stat.Mean(window, nil),
		CreatedAt:     time.Now().UTC(),
	}
}

func (r *StoreRecorder) Analyze(run, episode int, experiment string, trace *types.Trace) {
	record := r.Record(run, episode, experiment, trace)
	if err := r.store.SaveEpisode(context.Background(), record); err != nil {
		if r.err == nil {
			r.err = err
			r.logger.Printf("failed to save episode %d of %s: %s", episode, experiment, err)
		}
		return
	}
	r.saved++
}

// DataSet is the number of records saved since the last reset
func (r *StoreRecorder) DataSet() types.DataSet {
	return r.saved
}

func (r *StoreRecorder) Reset() {
	r.saved = 0
}

// Err returns the first failed save
func (r *StoreRecorder) Err() error {
	return r.err
}
