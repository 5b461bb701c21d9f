package service

type StageStatus string

const (
	StageOK       StageStatus = "ok"
	StageSkipped  StageStatus = "skipped"
	StageDegraded StageStatus = "degraded"
	StageFatal    StageStatus = "fatal"
)

// Outcome is the resolved result of one pipeline stage. Degraded stages
// carry their error for logging but let the pipeline continue; a Fatal
// stage ends the request.
type Outcome[T any] struct {
	Status StageStatus
	Value  T
	Err    error
}

func ok[T any](v T) Outcome[T] {
	return Outcome[T]{Status: StageOK, Value: v}
}

func skipped[T any]() Outcome[T] {
	return Outcome[T]{Status: StageSkipped}
}

func degraded[T any](err error) Outcome[T] {
	return Outcome[T]{Status: StageDegraded, Err: err}
}

func fatal[T any](err error) Outcome[T] {
	return Outcome[T]{Status: StageFatal, Err: err}
}
