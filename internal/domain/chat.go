package domain

// Role identifies the author of a chat message.
type Role string

const (
	RoleHuman Role = "human"
	RoleAI    Role = "ai"
)

// IsValid returns true if the role is valid
func (r Role) IsValid() bool {
	return r == RoleHuman || r == RoleAI
}

// ChatMessage is one entry of a session's chat log.
type ChatMessage struct {
	Text string `json:"message"`
	Role Role   `json:"role"`
}

// ModelOption is one entry of the model dropdown.
type ModelOption struct {
	Label string `json:"label"`
	ID    string `json:"id"`
}

// Profile selects the model backend and the cache directory layout.
type Profile string

const (
	// ProfileDocument uses the hosted OpenAI API.
	ProfileDocument Profile = "document"
	// ProfilePrivate uses a local Ollama server through its OpenAI-compatible API.
	ProfilePrivate Profile = "private"
)

// IsValid returns true if the profile is valid
func (p Profile) IsValid() bool {
	return p == ProfileDocument || p == ProfilePrivate
}

// FilesDir is the cache subdirectory holding raw uploads.
func (p Profile) FilesDir() string {
	if p == ProfilePrivate {
		return "private_files"
	}
	return "files"
}

// EmbeddingsDir is the cache subdirectory holding cached embeddings.
func (p Profile) EmbeddingsDir() string {
	if p == ProfilePrivate {
		return "private_embeddings"
	}
	return "embeddings"
}

// Title is the page title shown by the UI shells.
func (p Profile) Title() string {
	if p == ProfilePrivate {
		return "PrivateGPT"
	}
	return "DocumentGPT"
}

// ModelOptions returns the selectable models for the profile. The first entry is the default.
func (p Profile) ModelOptions() []ModelOption {
	if p == ProfilePrivate {
		return []ModelOption{
			{Label: "mistral:latest", ID: "mistral:latest"},
			{Label: "falcon:latest", ID: "falcon:latest"},
		}
	}
	return []ModelOption{
		{Label: "GPT-3", ID: "gpt-3.5-turbo"},
		{Label: "GPT-4", ID: "gpt-4"},
	}
}

// FindModel looks up an option by label or model id.
func (p Profile) FindModel(name string) (ModelOption, error) {
	for _, opt := range p.ModelOptions() {
		if opt.Label == name || opt.ID == name {
			return opt, nil
		}
	}
	return ModelOption{}, ErrUnknownModel
}

// ChatRequest is a single completion request sent to a chat model.
type ChatRequest struct {
	Prompt      string
	Model       string
	Temperature float32
}

// TokenStream yields generated tokens in order. Recv returns io.EOF once the
// model has finished.
type TokenStream interface {
	Recv() (string, error)
	Close() error
}
