package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.yaml.in/yaml/v3"

	"github.com/ShayCichocki/planr/pkg/models"
)

// answersFile is the list form of an answers file:
//
//	answers:
//	  - question_key: q1
//	    answer: Core features only
//
// A flat mapping of key to answer is accepted as well.
type answersFile struct {
	Answers []models.AnswerInput `yaml:"answers"`
}

var errEmptyAnswers = errors.New("answers file contains no answers")

// parseAnswers decodes an answers file. Blank answers are skipped.
func parseAnswers(data []byte) ([]models.AnswerInput, error) {
	var probe map[string]any
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parse answers: %w", err)
	}

	var inputs []models.AnswerInput
	if _, ok := probe["answers"]; ok {
		var f answersFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse answers: %w", err)
		}
		inputs = f.Answers
	} else {
		keys := make([]string, 0, len(probe))
		for k := range probe {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			text, ok := probe[k].(string)
			if !ok {
				return nil, fmt.Errorf("parse answers: value for %q must be a string", k)
			}
			inputs = append(inputs, models.AnswerInput{QuestionKey: k, Text: text})
		}
	}

	out := inputs[:0]
	for _, in := range inputs {
		in.QuestionKey = strings.TrimSpace(in.QuestionKey)
		in.Text = strings.TrimSpace(in.Text)
		if in.QuestionKey == "" || in.Text == "" {
			continue
		}
		out = append(out, in)
	}
	if len(out) == 0 {
		return nil, errEmptyAnswers
	}
	return out, nil
}

// parseAnswerArgs turns key=text arguments into answers.
func parseAnswerArgs(args []string) ([]models.AnswerInput, error) {
	inputs := make([]models.AnswerInput, 0, len(args))
	for _, arg := range args {
		key, text, ok := strings.Cut(arg, "=")
		key, text = strings.TrimSpace(key), strings.TrimSpace(text)
		if !ok || key == "" || text == "" {
			return nil, fmt.Errorf("invalid answer %q: expected key=text", arg)
		}
		inputs = append(inputs, models.AnswerInput{QuestionKey: key, Text: text})
	}
	return inputs, nil
}

func readAnswersFile(path string) ([]models.AnswerInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read answers file: %w", err)
	}
	return parseAnswers(data)
}

// watchDebounce coalesces the bursts of events editors produce on save.
const watchDebounce = 200 * time.Millisecond

// watchAnswers re-reads the answers file whenever it changes and hands the
// answers to apply until apply reports done or ctx ends. Parse and apply
// errors go to onErr and watching continues.
func watchAnswers(ctx context.Context, path string, apply func([]models.AnswerInput) (bool, error), onErr func(error)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file instead of writing it.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	var (
		timer   *time.Timer
		trigger <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			trigger = timer.C

		case <-trigger:
			trigger = nil
			inputs, err := readAnswersFile(abs)
			if err != nil {
				if !errors.Is(err, os.ErrNotExist) {
					onErr(err)
				}
				continue
			}
			done, err := apply(inputs)
			if err != nil {
				onErr(err)
				continue
			}
			if done {
				return nil
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			onErr(err)
		}
	}
}
