package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// WAVHeader is the body the fake synthesis endpoint returns.
var WAVHeader = []byte("RIFF\x24\x00\x00\x00WAVEfmt ")

// FeedbackJSON returns a scoring response the way the scoring backend
// sends it: a JSON document serialized as a JSON string.
func FeedbackJSON(score string) string {
	inner, _ := json.Marshal(map[string]string{
		"score":          score,
		"feedback":       "Clear and mostly complete.",
		"missing_points": "Time complexity of lookups.",
		"suggestions":    "Mention worst-case behaviour.",
		"resources":      "[Go maps](https://go.dev/blog/maps)",
		"correct_answer": "A structure that maps keys to values via a hash function.",
	})
	outer, _ := json.Marshal(string(inner))
	return string(outer)
}

// FakeBackend is an httptest server standing in for the transcribe, score,
// synthesize and review services.
type FakeBackend struct {
	Server *httptest.Server

	mu          sync.Mutex
	transcript  string
	scoreStatus int
	scoreBody   string
	synthStatus int
	reviewBody  string
	hold        chan struct{}
	arrived     chan struct{}

	transcribeCalls int
	scoreCalls      int
	synthCalls      int
	reviewCalls     int
	questions       []string
	reports         []string
}

// NewFakeBackend starts a backend that transcribes every non-empty upload
// as a fixed answer and scores it 85. The server closes with the test.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	b := &FakeBackend{
		transcript:  "A hash table maps keys to buckets using a hash function.",
		scoreStatus: http.StatusOK,
		scoreBody:   FeedbackJSON("85"),
		synthStatus: http.StatusOK,
		reviewBody: `"{\"Summary\": \"Confident delivery.\", \"Strengths\": \"Good eye contact.\", ` +
			`\"Weaknesses\": [{\"Weakness\": \"Pacing\", \"How to improve\": \"Pause between points\"}], ` +
			`\"Conclusion\": \"Ready for a real interview.\"}"`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/getlang", b.handleTranscribe)
	mux.HandleFunc("/qa", b.handleScore)
	mux.HandleFunc("/tts", b.handleSynthesize)
	mux.HandleFunc("/upload", b.handleReview)

	b.Server = httptest.NewServer(mux)
	t.Cleanup(b.Server.Close)
	return b
}

// URL returns the absolute URL for path.
func (b *FakeBackend) URL(path string) string {
	return b.Server.URL + path
}

// SetTranscript changes the text returned for non-empty uploads.
func (b *FakeBackend) SetTranscript(s string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transcript = s
}

// SetScore changes the scoring response.
func (b *FakeBackend) SetScore(status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scoreStatus = status
	b.scoreBody = body
}

// SetSynthesisStatus changes the synthesis response status.
func (b *FakeBackend) SetSynthesisStatus(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.synthStatus = status
}

// HoldTranscribe makes the next transcribe requests block until release is
// called. arrived is closed when the first held request comes in.
func (b *FakeBackend) HoldTranscribe() (arrived <-chan struct{}, release func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	hold := make(chan struct{})
	b.hold = hold
	b.arrived = make(chan struct{})
	var once sync.Once
	return b.arrived, func() {
		once.Do(func() {
			b.mu.Lock()
			if b.hold == hold {
				b.hold = nil
			}
			b.mu.Unlock()
			close(hold)
		})
	}
}

func (b *FakeBackend) TranscribeCalls() int { return b.count(&b.transcribeCalls) }
func (b *FakeBackend) ScoreCalls() int      { return b.count(&b.scoreCalls) }
func (b *FakeBackend) SynthesisCalls() int  { return b.count(&b.synthCalls) }
func (b *FakeBackend) ReviewCalls() int     { return b.count(&b.reviewCalls) }

// Questions returns the questions received by the scoring endpoint.
func (b *FakeBackend) Questions() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.questions...)
}

// Reports returns the texts received by the synthesis endpoint.
func (b *FakeBackend) Reports() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.reports...)
}

func (b *FakeBackend) count(n *int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return *n
}

func (b *FakeBackend) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.transcribeCalls++
	hold, arrived, transcript := b.hold, b.arrived, b.transcript
	if hold != nil && arrived != nil {
		close(arrived)
		b.arrived = nil
	}
	b.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-r.Context().Done():
			return
		}
	}

	file, _, err := r.FormFile("video")
	if err != nil {
		writeJSON(w, map[string]string{"Error": "Video not received"})
		return
	}
	defer file.Close()
	data, _ := io.ReadAll(file)

	// An empty recording has nothing to transcribe.
	if len(data) == 0 {
		transcript = ""
	}
	writeJSON(w, transcript)
}

func (b *FakeBackend) handleScore(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.scoreCalls++
	b.questions = append(b.questions, r.FormValue("question"))
	status, body := b.scoreStatus, b.scoreBody
	b.mu.Unlock()

	if status != http.StatusOK {
		http.Error(w, http.StatusText(status), status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, body)
}

func (b *FakeBackend) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.synthCalls++
	b.reports = append(b.reports, r.FormValue("report"))
	status := b.synthStatus
	b.mu.Unlock()

	if status != http.StatusOK {
		http.Error(w, http.StatusText(status), status)
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	_, _ = w.Write(WAVHeader)
}

func (b *FakeBackend) handleReview(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.reviewCalls++
	body := b.reviewBody
	b.mu.Unlock()

	if _, _, err := r.FormFile("video"); err != nil {
		writeJSON(w, map[string]string{"Error": "Video not received"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, body)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
