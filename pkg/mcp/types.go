package mcp

type ToolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type ToolResult struct {
	Content []ToolContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

func textResult(text string, isError bool) *ToolResult {
	return &ToolResult{
		Content: []ToolContent{{Type: "text", Text: text}},
		IsError: isError,
	}
}
