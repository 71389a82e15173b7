package ui

import (
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
)

// Confirm prompts the user for yes/no confirmation.
func Confirm(prompt string, defaultYes bool) (bool, error) {
	label := prompt
	if defaultYes {
		label += " [Y/n]"
	} else {
		label += " [y/N]"
	}

	p := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if defaultYes {
		p.Default = "y"
	}

	result, err := p.Run()
	if err != nil {
		if err == promptui.ErrAbort {
			return false, nil
		}
		return defaultYes, nil
	}

	result = strings.ToLower(strings.TrimSpace(result))
	if result == "" {
		return defaultYes, nil
	}

	return result == "y" || result == "yes", nil
}

// SelectProvider prompts the user to pick one of several packages that can
// satisfy the same dependency.
func SelectProvider(dep string, providers []string) (string, error) {
	if len(providers) == 0 {
		return "", fmt.Errorf("no providers available for %s", dep)
	}
	if len(providers) == 1 {
		return providers[0], nil
	}

	p := promptui.Select{
		Label: fmt.Sprintf("Select provider for %s", dep),
		Items: providers,
		Size:  10,
	}

	_, result, err := p.Run()
	if err != nil {
		return "", err
	}

	return result, nil
}
