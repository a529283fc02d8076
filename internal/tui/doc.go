// Package tui provides the interactive planning questionnaire.
//
// The questionnaire walks the user through a task's clarification questions
// one at a time. Each submitted answer is saved immediately, so quitting part
// way through keeps everything entered so far. When the last required
// question is answered the plan summary is shown and the program exits.
//
// Usage:
//
//	model := tui.NewQuestionnaire(ctx, state, service)
//	final, err := tea.NewProgram(model).Run()
//	result := final.(*tui.Questionnaire).Result()
//
// Keys: enter saves the current answer, tab and shift+tab move between
// questions, ctrl+f cycles through suggested answers, esc or ctrl+c quits.
package tui
