package model

// Stage is the furthest point a test case reached.
type Stage string

// Stages of a single test case, in order.
const (
	StageBuilt              Stage = "built"
	StageDispatched         Stage = "dispatched"
	StageProtocolFailed     Stage = "protocol-failed"
	StageComparisonFailed   Stage = "comparison-failed"
	StageCompared           Stage = "compared"
	StageSanitizationFailed Stage = "sanitization-failed"
	StageDone               Stage = "done"
)

// ComparisonResult is Pass, or Fail with a human-readable diagnostic.
type ComparisonResult struct {
	Passed     bool
	Class      Class
	Message    string
	Diagnostic string
}

// Pass returns a passing result.
func Pass() ComparisonResult {
	return ComparisonResult{Passed: true}
}

// Fail returns a failing result of the given class.
func Fail(class Class, message, diagnostic string) ComparisonResult {
	return ComparisonResult{Class: class, Message: message, Diagnostic: diagnostic}
}

// Outcome is the final record of one test case.
type Outcome struct {
	Suite           string `yaml:"suite"`
	FontPath        string `yaml:"font"`
	Profile         string `yaml:"profile"`
	Unicodes        string `yaml:"unicodes"`
	ExpectedFile    string `yaml:"expected"`
	OutputFile      string `yaml:"output,omitempty"`
	Command         string `yaml:"command"`
	Stage           Stage  `yaml:"stage"`
	Class           Class  `yaml:"class,omitempty"`
	Message         string `yaml:"message,omitempty"`
	Diagnostic      string `yaml:"diagnostic,omitempty"`
	SanitizeSkipped bool   `yaml:"sanitize_skipped,omitempty"`
}

// Failed reports whether any stage of the test failed.
func (o Outcome) Failed() bool {
	return o.Class != ""
}

// RunSummary accumulates outcomes over a run.
type RunSummary struct {
	Suites   int           `yaml:"suites"`
	Total    int           `yaml:"total"`
	Failures int           `yaml:"failures"`
	ByClass  map[Class]int `yaml:"by_class,omitempty"`
}

// Record folds one outcome into the summary.
func (s *RunSummary) Record(o Outcome) {
	s.Total++

	if !o.Failed() {
		return
	}

	s.Failures++

	if s.ByClass == nil {
		s.ByClass = map[Class]int{}
	}

	s.ByClass[o.Class]++
}

// Passed reports whether the run had no failing test.
func (s RunSummary) Passed() bool {
	return s.Failures == 0
}

// RunReport is the persisted form of a run.
type RunReport struct {
	Worker   string     `yaml:"worker"`
	Summary  RunSummary `yaml:"summary"`
	Outcomes []Outcome  `yaml:"outcomes"`
}
