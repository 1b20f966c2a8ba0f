package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/ashwch/determinal/internal/catalog"
	"github.com/ashwch/determinal/internal/decision"
	"github.com/ashwch/determinal/internal/hint"
	"github.com/ashwch/determinal/internal/journal"
	"github.com/ashwch/determinal/internal/provider"
	"github.com/ashwch/determinal/internal/ui"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type fakeAsker struct {
	replies map[string]string
	err     error
	asked   []string
}

func (f *fakeAsker) Ask(_ context.Context, input string) (hint.Hint, error) {
	f.asked = append(f.asked, input)
	if f.err != nil {
		return hint.Hint{}, f.err
	}
	return hint.Parse(f.replies[input]), nil
}

type fakeRunner struct {
	fail map[string]error
	ran  []string
}

func (f *fakeRunner) Run(_ context.Context, command string) error {
	f.ran = append(f.ran, command)
	return f.fail[command]
}

type fakePrompter struct {
	index      int
	selectErr  error
	approve    bool
	confirmErr error
	confirmed  []string
	selections [][]string
}

func (f *fakePrompter) SelectIndex(_, _ string, options []string) (int, error) {
	f.selections = append(f.selections, options)
	return f.index, f.selectErr
}

func (f *fakePrompter) Confirm(_, detail string) (bool, error) {
	f.confirmed = append(f.confirmed, detail)
	return f.approve, f.confirmErr
}

type fakeRecorder struct {
	turns []journal.Turn
}

func (f *fakeRecorder) Record(_ context.Context, turn journal.Turn) error {
	f.turns = append(f.turns, turn)
	return nil
}

type scriptedReader struct {
	lines []string
	errs  []error
}

func (r *scriptedReader) ReadLine() (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line, err := r.lines[0], r.errs[0]
	r.lines, r.errs = r.lines[1:], r.errs[1:]
	return line, err
}

func lines(values ...string) *scriptedReader {
	return &scriptedReader{lines: values, errs: make([]error, len(values))}
}

type harness struct {
	asker    *fakeAsker
	runner   *fakeRunner
	prompter *fakePrompter
	recorder *fakeRecorder
	out      *bytes.Buffer
	session  *Session
}

func newHarness(t *testing.T, fastPath bool) *harness {
	t.Helper()
	known, err := catalog.Bundled()
	require.NoError(t, err)

	h := &harness{
		asker:    &fakeAsker{replies: map[string]string{}},
		runner:   &fakeRunner{fail: map[string]error{}},
		prompter: &fakePrompter{},
		recorder: &fakeRecorder{},
		out:      &bytes.Buffer{},
	}
	h.session = New(Options{
		Asker:     h.asker,
		Selection: provider.Selection{Kind: provider.KindOpenAI, Model: "gpt-4"},
		Runner:    h.runner,
		Prompter:  h.prompter,
		Printer:   ui.NewPrinter(h.out),
		Recorder:  h.recorder,
		Engine:    decision.NewEngine(nil, "parsed"),
		Known:     known.Known(catalog.ShellBash),
		FastPath:  fastPath,
	})
	return h
}

func TestFastPathRunsKnownCommandWithoutAsking(t *testing.T) {
	h := newHarness(t, true)
	out := h.session.Turn(context.Background(), "ls -la")

	require.Equal(t, KindFastPath, out.Kind)
	require.Empty(t, h.asker.asked)
	require.Equal(t, []string{"ls -la"}, h.runner.ran)
	require.Len(t, h.recorder.turns, 1)
	require.Equal(t, KindFastPath, h.recorder.turns[0].Decision)
	require.Empty(t, h.recorder.turns[0].Backend)
}

func TestFastPathFailureFallsBackToAssistantWithSameInput(t *testing.T) {
	h := newHarness(t, true)
	h.runner.fail["git stauts"] = errors.New("exit status 1")
	h.asker.replies["git stauts"] = "Explanation: Typo in status.\nCommand: git status"
	h.prompter.approve = true

	out := h.session.Turn(context.Background(), "git stauts")

	require.Equal(t, []string{"git stauts"}, h.asker.asked)
	require.Equal(t, "run_single", out.Kind)
	if diff := cmp.Diff([]string{"git stauts", "git status"}, h.runner.ran); diff != "" {
		t.Fatalf("unexpected runs (-want +got):\n%s", diff)
	}
}

func TestUnknownCommandGoesStraightToAssistant(t *testing.T) {
	h := newHarness(t, true)
	h.asker.replies["sl"] = "Explanation: sl is not a valid command.\nCommand: ls"

	out := h.session.Turn(context.Background(), "sl")

	require.Equal(t, "run_single", out.Kind)
	require.False(t, out.Executed)
	require.Equal(t, []string{"ls"}, h.prompter.confirmed)
	require.Empty(t, h.runner.ran)
}

func TestAlreadyCorrectInputRunsOriginalWithoutConfirmation(t *testing.T) {
	h := newHarness(t, false)
	h.asker.replies["ls -la"] = "Explanation: This command is already correct. Command: ls -la"

	out := h.session.Turn(context.Background(), "ls -la")

	require.Equal(t, "run_original", out.Kind)
	require.Equal(t, []string{"ls -la"}, h.runner.ran)
	require.Empty(t, h.prompter.confirmed)
}

func TestSingleCandidateConfirmedRunsFullCommand(t *testing.T) {
	h := newHarness(t, false)
	h.asker.replies["show files"] = "Explanation: List files.\nCommand: `ls -la`"
	h.prompter.approve = true

	out := h.session.Turn(context.Background(), "show files")

	require.True(t, out.Executed)
	require.Equal(t, []string{"ls -la"}, h.runner.ran)
}

func TestConfirmationErrorDoesNotRun(t *testing.T) {
	h := newHarness(t, false)
	h.asker.replies["x"] = "Explanation: try this\nCommand: pwd"
	h.prompter.confirmErr = errors.New("no tty")

	out := h.session.Turn(context.Background(), "x")
	require.False(t, out.Executed)
	require.Empty(t, h.runner.ran)
}

func TestChooseAmongRunsSelectedCandidate(t *testing.T) {
	h := newHarness(t, false)
	h.asker.replies["list"] = "Explanation: Either works.\nCommand: ls or ls -la"
	h.prompter.index = 1

	out := h.session.Turn(context.Background(), "list")

	require.Equal(t, "choose_among", out.Kind)
	require.Equal(t, [][]string{{"ls", "ls -la"}}, h.prompter.selections)
	require.Equal(t, []string{"ls -la"}, h.runner.ran)
	require.Empty(t, h.prompter.confirmed)
}

func TestChooseAmongSelectionFailureUsesFirstCandidate(t *testing.T) {
	h := newHarness(t, false)
	h.asker.replies["list"] = "Explanation: Either works.\nCommand: ls or ls -la"
	h.prompter.index = 5
	h.prompter.selectErr = io.ErrUnexpectedEOF

	h.session.Turn(context.Background(), "list")
	require.Equal(t, []string{"ls"}, h.runner.ran)
}

func TestChooseAmongAbortRunsNothing(t *testing.T) {
	h := newHarness(t, false)
	h.asker.replies["list"] = "Explanation: Either works.\nCommand: ls or ls -la"
	h.prompter.selectErr = ui.ErrAborted

	out := h.session.Turn(context.Background(), "list")
	require.False(t, out.Executed)
	require.Empty(t, h.runner.ran)
}

func TestDisplayOnlyShowsExplanation(t *testing.T) {
	h := newHarness(t, false)
	h.asker.replies["what is ls"] = "Explanation: ls lists directory contents."

	out := h.session.Turn(context.Background(), "what is ls")

	require.Equal(t, "display", out.Kind)
	require.Empty(t, h.runner.ran)
	require.Contains(t, h.out.String(), "ls lists directory contents.")
}

func TestAskFailureIsReportedAndRecorded(t *testing.T) {
	h := newHarness(t, false)
	h.asker.err = errors.New("AI backend request failed: openai: status 500")

	out := h.session.Turn(context.Background(), "sl")

	require.Error(t, out.Err)
	require.Contains(t, h.out.String(), "status 500")
	require.Len(t, h.recorder.turns, 1)
	require.Equal(t, "error", h.recorder.turns[0].Decision)
	require.Equal(t, -1, h.recorder.turns[0].ExitCode)
}

func TestLoopStopsOnExitAndSkipsBlankLines(t *testing.T) {
	h := newHarness(t, true)
	reader := lines("", "pwd", "   ", "/help", "exit", "ls")

	require.NoError(t, h.session.Loop(context.Background(), reader))
	require.Equal(t, []string{"pwd"}, h.runner.ran)
	require.Contains(t, h.out.String(), "/backend")
}

func TestLoopExitWordsAreCaseSensitive(t *testing.T) {
	h := newHarness(t, false)
	h.asker.replies["EXIT"] = "Explanation: Did you mean exit?"

	require.NoError(t, h.session.Loop(context.Background(), lines("EXIT", "Quit", " quit ")))
	require.Equal(t, []string{"EXIT", "Quit"}, h.asker.asked)
	require.Empty(t, h.runner.ran)
}

func TestLoopContinuesAfterInterruptAndEndsOnEOF(t *testing.T) {
	h := newHarness(t, true)
	reader := &scriptedReader{
		lines: []string{"", "whoami"},
		errs:  []error{ErrInterrupt, nil},
	}

	require.NoError(t, h.session.Loop(context.Background(), reader))
	require.Equal(t, []string{"whoami"}, h.runner.ran)
}

func TestLoopSurvivesFailedTurns(t *testing.T) {
	h := newHarness(t, false)
	h.asker.err = errors.New("connection refused")

	require.NoError(t, h.session.Loop(context.Background(), lines("sl", "gti status", "quit")))
	require.Equal(t, []string{"sl", "gti status"}, h.asker.asked)
}

func TestBackendCommandSwitchesAsker(t *testing.T) {
	h := newHarness(t, false)
	replacement := &fakeAsker{replies: map[string]string{"sl": "Explanation: no command here"}}
	h.session.reselect = func(context.Context) (Asker, provider.Selection, error) {
		return replacement, provider.Selection{Kind: provider.KindOllama, Model: "llama3"}, nil
	}

	require.NoError(t, h.session.Loop(context.Background(), lines("/backend", "sl", "exit")))
	require.Empty(t, h.asker.asked)
	require.Equal(t, []string{"sl"}, replacement.asked)
	require.Equal(t, "ollama", h.recorder.turns[0].Backend)
	require.Equal(t, "llama3", h.recorder.turns[0].Model)
}
