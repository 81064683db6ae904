package harness

import (
	"fmt"
	"io"
)

// TestResult is one finished self-test.
type TestResult struct {
	ID      int
	Name    string
	Passed  bool
	Message string
}

// Suite collects the results of a sequence of tests.
type Suite struct {
	results []TestResult
	open    map[int]string
}

// BeginTest opens a test and returns its id.
func (s *Suite) BeginTest(name string) int {
	if s.open == nil {
		s.open = map[int]string{}
	}

	id := len(s.results) + len(s.open)
	s.open[id] = name

	return id
}

// EndTest closes a test. msg explains a failure and is kept only then.
func (s *Suite) EndTest(id int, passed bool, msg string) error {
	name, ok := s.open[id]
	if !ok {
		return fmt.Errorf("test %d was not started", id)
	}
	delete(s.open, id)

	if passed {
		msg = ""
	}

	s.results = append(s.results, TestResult{ID: id, Name: name, Passed: passed, Message: msg})

	return nil
}

// Results returns the finished tests in completion order.
func (s *Suite) Results() []TestResult {
	return s.results
}

// Counts returns the number of passed and failed tests.
func (s *Suite) Counts() (passed, failed int) {
	for _, r := range s.results {
		if r.Passed {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}

// Summary writes one line per test and a total.
func (s *Suite) Summary(w io.Writer) error {
	for _, r := range s.results {
		status := "Pass"
		if !r.Passed {
			status = "Fail"
		}

		line := fmt.Sprintf("%d, %s, %s", r.ID, r.Name, status)
		if r.Message != "" {
			line += ", " + r.Message
		}

		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	passed, failed := s.Counts()
	_, err := fmt.Fprintf(w, "%d passed, %d failed\n", passed, failed)

	return err
}
