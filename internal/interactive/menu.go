// Package interactive provides terminal user interface components
package interactive

import (
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
)

// MenuOption represents a menu item with its associated action
type MenuOption struct {
	Name        string
	Description string
	Action      func() error
}

const exitChoice = "Exit"

var (
	// ErrExit is returned when the user chooses to exit
	ErrExit = errors.New("exit")
	// ErrInvalidSelection is returned when an invalid menu option is selected
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrNoOptions is returned when a selection is requested from an empty list
	ErrNoOptions = errors.New("nothing to select")
)

// MenuChoices returns the labels shown for options, followed by Exit.
func MenuChoices(options []MenuOption) ([]string, map[string]MenuOption) {
	choices := make([]string, 0, len(options)+1)
	optionMap := make(map[string]MenuOption, len(options))

	for _, opt := range options {
		choice := fmt.Sprintf("%s - %s", opt.Name, opt.Description)
		choices = append(choices, choice)
		optionMap[choice] = opt
	}

	return append(choices, exitChoice), optionMap
}

// ShowMainMenu displays the main menu and handles user selection
func ShowMainMenu(options []MenuOption) error {
	choices, optionMap := MenuChoices(options)

	var selected string
	prompt := &survey.Select{
		Message: "What would you like to do?",
		Options: choices,
	}

	if err := survey.AskOne(prompt, &selected); err != nil {
		return ErrExit
	}

	if selected == exitChoice {
		return ErrExit
	}

	if option, ok := optionMap[selected]; ok {
		return option.Action()
	}

	return ErrInvalidSelection
}

// Select asks the user to pick one of options. Interrupting the prompt
// returns ErrExit.
func Select(message string, options []string) (string, error) {
	if len(options) == 0 {
		return "", ErrNoOptions
	}

	var selected string
	prompt := &survey.Select{
		Message:  message,
		Options:  options,
		PageSize: 15,
	}

	if err := survey.AskOne(prompt, &selected); err != nil {
		return "", ErrExit
	}

	return selected, nil
}

// PauseForEnter waits for the user to press Enter
func PauseForEnter() {
	fmt.Println("\nPress Enter to continue...")
	_, _ = fmt.Scanln()
}

// Confirm asks for user confirmation
func Confirm(message string) bool {
	confirmed := false
	prompt := &survey.Confirm{
		Message: message,
		Default: false,
	}
	_ = survey.AskOne(prompt, &confirmed)
	return confirmed
}
