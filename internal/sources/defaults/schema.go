package defaults

// File is the YAML layout of the default options seed. Every field is
// optional; absent fields keep the built-in defaults.
type File struct {
	Morning       string            `yaml:"morning,omitempty"` // "HH:MM"
	Evening       string            `yaml:"evening,omitempty"`
	HourFormat    int               `yaml:"hourFormat,omitempty"`
	Notifications string            `yaml:"notifications,omitempty"`
	History       *int              `yaml:"history,omitempty"`
	Badge         string            `yaml:"badge,omitempty"`
	Polling       string            `yaml:"polling,omitempty"`
	WeekStart     string            `yaml:"weekStart,omitempty"` // weekday name or number
	Popup         map[string]string `yaml:"popup,omitempty"`
	ContextMenu   []string          `yaml:"contextMenu,omitempty"`
}
