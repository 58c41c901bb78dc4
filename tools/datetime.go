package tools

import (
	"context"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/loopwork-ai/mcpd/mcp"
)

// cityTimezones maps known city aliases to IANA timezone names
var cityTimezones = map[string]string{
	"new york":   "America/New_York",
	"nyc":        "America/New_York",
	"copenhagen": "Europe/Copenhagen",
	"cp hagen":   "Europe/Copenhagen",
}

// timeNow is a variable that allows overriding the clock for testing
var timeNow = time.Now

// DateTime returns the get_locale_date_time tool definition
func DateTime() mcp.ToolDefinition {
	return mcp.ToolDefinition{
		Name:        "get_locale_date_time",
		Description: "Get the local date/time for a locale. Use an IANA timezone or known city alias.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"locale": {
					Type:        "string",
					Description: "Timezone/locale like 'America/New_York', 'Europe/Copenhagen', 'New York', or 'Copenhagen'.",
				},
			},
			Required:             []string{"locale"},
			AdditionalProperties: falseSchema(),
		},
		Handler: handleDateTime,
	}
}

func handleDateTime(_ context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	locale, _ := args["locale"].(string)

	name, err := resolveTimezone(locale)
	if err != nil {
		return nil, err
	}

	location, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", mcp.ErrInvalidArgument, name)
	}
	now := timeNow().In(location)

	text := fmt.Sprintf("Local date/time in %s is %s.", name, now.Format("2006-01-02 15:04:05 MST-0700"))

	return mcp.NewToolResult(text, map[string]any{
		"locale":   locale,
		"timezone": name,
		"date":     now.Format("2006-01-02"),
		"time":     now.Format("15:04:05"),
		"iso":      now.Format(time.RFC3339),
		"offset":   now.Format("-0700"),
	}), nil
}

// resolveTimezone maps a locale to an IANA timezone name: a known city
// alias first, otherwise the value itself if it names a loadable zone.
func resolveTimezone(locale string) (string, error) {
	candidate := strings.TrimSpace(locale)
	if candidate == "" {
		return "", fmt.Errorf("%w: `locale` is required", mcp.ErrInvalidArgument)
	}

	if name, ok := cityTimezones[strings.ToLower(candidate)]; ok {
		return name, nil
	}

	if _, err := time.LoadLocation(candidate); err != nil {
		return "", fmt.Errorf("%w: unsupported locale/timezone; try an IANA timezone like 'America/New_York' or a known alias like 'Copenhagen'", mcp.ErrInvalidArgument)
	}
	return candidate, nil
}
