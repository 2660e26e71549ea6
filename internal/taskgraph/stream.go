package taskgraph

import (
	"fmt"
	"iter"
	"sync/atomic"
)

const (
	transformStepErrorTemplateConstant = "transform %s failed: %v"
)

// Stream is a lazy sequence of task records. A non-nil error ends the stream.
type Stream iter.Seq2[Task, error]

// Transform maps a stream of task records to another stream.
type Transform func(config TransformConfig, tasks Stream) Stream

// TaskFunc rewrites a single task record.
type TaskFunc func(config TransformConfig, task Task) (Task, error)

// Predicate selects task records.
type Predicate func(task Task) bool

// FromSlice streams the provided records in order.
func FromSlice(tasks []Task) Stream {
	return func(yield func(Task, error) bool) {
		for _, task := range tasks {
			if !yield(task, nil) {
				return
			}
		}
	}
}

// Failed returns a stream that yields only the provided error.
func Failed(err error) Stream {
	return func(yield func(Task, error) bool) {
		yield(nil, err)
	}
}

// Once guards a stream so a second iteration yields ErrStreamConsumed.
func Once(tasks Stream) Stream {
	var consumed atomic.Bool
	return func(yield func(Task, error) bool) {
		if consumed.Swap(true) {
			yield(nil, ErrStreamConsumed)
			return
		}
		if tasks == nil {
			return
		}
		for task, taskError := range tasks {
			if !yield(task, taskError) {
				return
			}
		}
	}
}

// Collect materializes a stream, stopping at the first error.
func Collect(tasks Stream) ([]Task, error) {
	collected := []Task{}
	if tasks == nil {
		return collected, nil
	}
	for task, taskError := range tasks {
		if taskError != nil {
			return nil, taskError
		}
		collected = append(collected, task)
	}
	return collected, nil
}

// MapTransform lifts a per-record function into a Transform that forwards upstream errors.
func MapTransform(taskFunc TaskFunc) Transform {
	return func(config TransformConfig, tasks Stream) Stream {
		return func(yield func(Task, error) bool) {
			for task, upstreamError := range tasks {
				if upstreamError != nil {
					yield(nil, upstreamError)
					return
				}
				transformed, transformError := taskFunc(config, task)
				if transformError != nil {
					yield(nil, transformError)
					return
				}
				if !yield(transformed, nil) {
					return
				}
			}
		}
	}
}

// FilterTransform keeps records matching the predicate, preserving order.
func FilterTransform(predicate Predicate) Transform {
	return func(config TransformConfig, tasks Stream) Stream {
		return Filter(tasks, predicate)
	}
}

// Filter keeps records matching the predicate, preserving order.
func Filter(tasks Stream, predicate Predicate) Stream {
	return func(yield func(Task, error) bool) {
		for task, upstreamError := range tasks {
			if upstreamError != nil {
				yield(nil, upstreamError)
				return
			}
			if !predicate(task) {
				continue
			}
			if !yield(task, nil) {
				return
			}
		}
	}
}

type namedTransform struct {
	name      string
	transform Transform
}

// Sequence is an ordered list of named transform steps.
type Sequence struct {
	steps []namedTransform
}

// NewSequence constructs an empty Sequence.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Add appends a named step and returns the sequence for chaining.
func (sequence *Sequence) Add(name string, transform Transform) *Sequence {
	if transform == nil {
		return sequence
	}
	sequence.steps = append(sequence.steps, namedTransform{name: name, transform: transform})
	return sequence
}

// Names lists step names in registration order.
func (sequence *Sequence) Names() []string {
	names := make([]string, 0, len(sequence.steps))
	for _, step := range sequence.steps {
		names = append(names, step.name)
	}
	return names
}

// Len reports the number of registered steps.
func (sequence *Sequence) Len() int {
	return len(sequence.steps)
}

// Apply composes the steps over the input stream in registration order.
func (sequence *Sequence) Apply(config TransformConfig, tasks Stream) Stream {
	current := Once(tasks)
	for _, step := range sequence.steps {
		current = annotateErrors(step.name, step.transform(config, current))
	}
	return current
}

func annotateErrors(stepName string, tasks Stream) Stream {
	return func(yield func(Task, error) bool) {
		for task, taskError := range tasks {
			if taskError != nil {
				if _, alreadyAnnotated := taskError.(stepError); !alreadyAnnotated {
					taskError = stepError{step: stepName, cause: taskError}
				}
				yield(nil, taskError)
				return
			}
			if !yield(task, nil) {
				return
			}
		}
	}
}

type stepError struct {
	step  string
	cause error
}

func (annotated stepError) Error() string {
	return fmt.Sprintf(transformStepErrorTemplateConstant, annotated.step, annotated.cause)
}

func (annotated stepError) Unwrap() error {
	return annotated.cause
}
