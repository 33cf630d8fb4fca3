package whisper

import "context"

// StubEngine returns a canned result or error; used by orchestrator tests.
type StubEngine struct {
	Result *Result
	Err    error

	// Requests records every call for assertions.
	Requests []Request
}

func (s *StubEngine) Transcribe(_ context.Context, req Request) (*Result, error) {
	s.Requests = append(s.Requests, req)
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Result, nil
}
