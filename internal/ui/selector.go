package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/rivo/tview"
)

var (
	plainIn  io.Reader = os.Stdin
	plainOut io.Writer = os.Stdout
)

// SelectIndex asks the operator to pick one of options and returns its
// index. The first option is preselected. A dismissed prompt returns
// ErrAborted; when every backend fails the first error is returned with
// index 0.
func SelectIndex(backend, title, description string, options []string) (int, error) {
	switch len(options) {
	case 0:
		return 0, fmt.Errorf("nothing to select")
	case 1:
		return 0, nil
	}

	var firstErr error
	for _, candidate := range backendCandidates(backend) {
		var (
			idx int
			err error
		)
		switch candidate {
		case BackendBubbleTea:
			idx, err = selectWithBubbleTea(title, options)
		case BackendHuh:
			idx, err = selectWithHuh(title, description, options)
		case BackendTView:
			idx, err = selectWithTView(title, options)
		case BackendPlain:
			idx, err = selectWithPlain(plainIn, plainOut, title, options)
		default:
			continue
		}
		if errors.Is(err, ErrAborted) {
			return 0, err
		}
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		return idx, nil
	}
	return 0, firstErr
}

func selectWithHuh(title, description string, options []string) (int, error) {
	huhOptions := make([]huh.Option[int], 0, len(options))
	for idx, option := range options {
		huhOptions = append(huhOptions, huh.NewOption(option, idx))
	}

	choice := 0
	prompt := huh.NewSelect[int]().
		Title(title).
		Description(description).
		Options(huhOptions...).
		Height(huhSelectHeight(len(huhOptions))).
		Value(&choice).
		WithTheme(huh.ThemeCharm())

	if err := prompt.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return 0, ErrAborted
		}
		return 0, err
	}
	return choice, nil
}

type bubbleSelectorItem struct {
	label string
	index int
}

func (i bubbleSelectorItem) Title() string       { return i.label }
func (i bubbleSelectorItem) Description() string { return "" }
func (i bubbleSelectorItem) FilterValue() string { return i.label }

type bubbleSelectorModel struct {
	list      list.Model
	selection int
	cancelled bool
	options   int
}

func (m bubbleSelectorModel) Init() tea.Cmd { return nil }

func (m bubbleSelectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch k := msg.(type) {
	case tea.WindowSizeMsg:
		width, height := bubblePickerSize(k.Width, k.Height, m.options)
		m.list.SetSize(width, height)
		return m, nil
	case tea.KeyMsg:
		switch k.String() {
		case "q", "esc", "ctrl+c":
			m.cancelled = true
			return m, tea.Quit
		case "enter":
			if item, ok := m.list.SelectedItem().(bubbleSelectorItem); ok {
				m.selection = item.index
			}
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m bubbleSelectorModel) View() string {
	return m.list.View()
}

func selectWithBubbleTea(title string, options []string) (int, error) {
	items := make([]list.Item, 0, len(options))
	for idx, option := range options {
		items = append(items, bubbleSelectorItem{label: fmt.Sprintf("%d. %s", idx+1, option), index: idx})
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)

	initialWidth, initialHeight := bubblePickerSize(80, 24, len(items))
	picker := list.New(items, delegate, initialWidth, initialHeight)
	picker.Title = title
	picker.SetShowHelp(false)
	picker.SetFilteringEnabled(false)

	model := bubbleSelectorModel{list: picker, options: len(items)}
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return 0, err
	}
	out, ok := final.(bubbleSelectorModel)
	if !ok {
		return 0, nil
	}
	if out.cancelled {
		return 0, ErrAborted
	}
	return out.selection, nil
}

func selectWithTView(title string, options []string) (int, error) {
	app := tview.NewApplication()
	listView := tview.NewList()
	listView.SetBorder(true)
	listView.SetTitle(title)
	listView.ShowSecondaryText(false)

	selected := 0
	used := false
	for idx, option := range options {
		current := idx
		listView.AddItem(option, "", 0, func() {
			selected = current
			used = true
			app.Stop()
		})
	}
	listView.SetDoneFunc(func() {
		app.Stop()
	})

	if err := app.SetRoot(listView, true).SetFocus(listView).Run(); err != nil {
		return 0, err
	}
	if !used {
		return 0, ErrAborted
	}
	return selected, nil
}

// selectWithPlain prints a 1-indexed list and reads a number. Blank or
// unparsable answers pick the first option.
func selectWithPlain(in io.Reader, out io.Writer, title string, options []string) (int, error) {
	fmt.Fprintln(out, title)
	for idx, option := range options {
		fmt.Fprintf(out, "  %d. %s\n", idx+1, option)
	}
	fmt.Fprintf(out, "Select [1-%d] (default 1): ", len(options))

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && strings.TrimSpace(line) == "" {
		return 0, err
	}
	n, convErr := strconv.Atoi(strings.TrimSpace(line))
	if convErr != nil || n < 1 || n > len(options) {
		return 0, nil
	}
	return n - 1, nil
}

func clampInt(v, minV, maxV int) int {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

func bubblePickerSize(termWidth, termHeight, optionCount int) (int, int) {
	if termWidth <= 0 {
		termWidth = 80
	}
	if termHeight <= 0 {
		termHeight = 24
	}
	if optionCount < 1 {
		optionCount = 1
	}

	maxWidth := termWidth
	minWidth := 32
	if maxWidth < minWidth {
		minWidth = maxWidth
	}
	width := clampInt(termWidth-4, minWidth, maxWidth)

	visibleItems := clampInt(optionCount, 3, 12)
	desiredHeight := visibleItems + 6

	maxHeight := termHeight - 2
	if maxHeight <= 0 {
		maxHeight = termHeight
	}
	if maxHeight <= 0 {
		maxHeight = 1
	}
	minHeight := 8
	if maxHeight < minHeight {
		minHeight = maxHeight
	}
	height := clampInt(desiredHeight, minHeight, maxHeight)
	return width, height
}

func huhSelectHeight(optionCount int) int {
	if optionCount < 1 {
		optionCount = 1
	}
	return clampInt(optionCount+1, 4, 10)
}
