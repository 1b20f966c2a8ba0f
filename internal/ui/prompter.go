package ui

// Prompter binds the prompt helpers to one configured backend.
type Prompter struct {
	Backend string
}

func NewPrompter(backend string) Prompter {
	return Prompter{Backend: NormalizeBackend(backend)}
}

func (p Prompter) SelectIndex(title, description string, options []string) (int, error) {
	return SelectIndex(p.Backend, title, description, options)
}

func (p Prompter) Confirm(title, detail string) (bool, error) {
	return Confirm(p.Backend, title, detail)
}

// Choose picks among labelled options with no description.
func (p Prompter) Choose(title string, options []string) (int, error) {
	return SelectIndex(p.Backend, title, "", options)
}
