package mcp

// Tool names.
const (
	ToolNextIndex     = "next_screenshot_index"
	ToolCounterStatus = "screenshot_counter_status"
)

// MaxBatch bounds the indices allocated by one next_screenshot_index call.
const MaxBatch = 100

// NextIndexInput defines the input schema for the next_screenshot_index tool.
type NextIndexInput struct {
	Count int `json:"count,omitempty" jsonschema:"number of indices to allocate, 1-100, default 1"`
}

// NextIndexOutput defines the output schema for the next_screenshot_index tool.
type NextIndexOutput struct {
	Indices   []uint64 `json:"indices" jsonschema:"allocated indices in allocation order"`
	Filenames []string `json:"filenames" jsonschema:"suggested file name for each index"`
}

// CounterStatusInput defines the input schema for the screenshot_counter_status tool (no parameters).
type CounterStatusInput struct{}

// CounterStatusOutput defines the output schema for the screenshot_counter_status tool.
type CounterStatusOutput struct {
	Current        uint64 `json:"current" jsonschema:"last allocated index, 0 if none"`
	ScreenshotsDir string `json:"screenshots_dir" jsonschema:"directory the counter was seeded from"`
}
