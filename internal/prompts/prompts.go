// Package prompts builds the prompt strings sent to the inference
// backend. Prompt text lives here, in one place, so handler code stays
// free of long string literals.
package prompts

import (
	"fmt"
	"sort"
	"strings"
)

// systemTemplate is the assistant's standing instructions, sent as the
// system prompt with every AI-backed action.
const systemTemplate = `You are a Local Development Assistant. You help developers by:

1. Creating project structures and files
2. Generating code based on requirements
3. Managing development workflows
4. Providing coding assistance and explanations

Always provide practical, working code with proper error handling.
When creating projects, suggest appropriate structures and best practices.
Be concise but thorough in your responses.`

// System returns the assistant's system prompt. Exported as a function
// rather than the constant to keep the package interface uniform and
// allow future parameterization.
func System() string {
	return systemTemplate
}

// GenerateCode wraps a user request in the code-generation template.
func GenerateCode(request, language string) string {
	return fmt.Sprintf(`Generate %[1]s code for: %[2]s

Requirements:
- Provide clean, well-documented code
- Include proper error handling
- Add comments explaining key parts
- Follow best practices for %[1]s
- Make the code production-ready

Code:`, language, request)
}

// AnalyzeCode wraps source code in the analysis template.
func AnalyzeCode(code string) string {
	return fmt.Sprintf("Analyze this code for potential issues, improvements, and best practices:\n\n"+
		"```\n%s\n```\n\n"+
		`Please provide:
1. Code quality assessment
2. Potential bugs or issues
3. Performance improvements
4. Security considerations
5. Best practice recommendations

Analysis:`, code)
}

// SuggestImprovements builds the project-review prompt from a project's
// name, type, and the contents of its key files.
func SuggestImprovements(name, projType string, files map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this project and suggest improvements:\n\n")
	fmt.Fprintf(&b, "Project: %s\nType: %s\n\nProject files:\n", name, projType)
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		fmt.Fprintf(&b, "\n--- %s ---\n%s\n", path, files[path])
	}
	b.WriteString(`
Please suggest:
1. Project structure improvements
2. Code organization enhancements
3. Missing files or dependencies
4. Development workflow improvements
5. Testing and documentation suggestions

Suggestions:`)
	return b.String()
}
