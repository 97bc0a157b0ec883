package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spetersoncode/stride/schema"
	"github.com/spetersoncode/stride/tool"
)

// CalcArgs are the calculator tool arguments.
type CalcArgs struct {
	A  float64 `json:"a"`
	B  float64 `json:"b"`
	Op string  `json:"op"`
}

// setupLocalTools builds the demo's built-in tool provider: a calculator
// and a clock.
func setupLocalTools() *tool.LocalProvider {
	p := tool.NewLocalProvider("local")

	calcSchema := schema.Object().
		Desc("Perform basic arithmetic on two numbers").
		Field("a", schema.Number().Desc("First operand").Required()).
		Field("b", schema.Number().Desc("Second operand").Required()).
		Field("op", schema.String().Desc("Operation").Enum("add", "sub", "mul", "div").Required()).
		Strict().
		MustBuild()

	tool.MustRegisterFunc(p, "calculator", "Perform basic arithmetic", calcSchema,
		func(ctx context.Context, args CalcArgs) (string, error) {
			switch strings.ToLower(args.Op) {
			case "add":
				return fmt.Sprintf("%g", args.A+args.B), nil
			case "sub":
				return fmt.Sprintf("%g", args.A-args.B), nil
			case "mul":
				return fmt.Sprintf("%g", args.A*args.B), nil
			case "div":
				if args.B == 0 {
					return "", fmt.Errorf("division by zero")
				}
				return fmt.Sprintf("%g", args.A/args.B), nil
			default:
				return "", fmt.Errorf("unknown operation %q", args.Op)
			}
		},
	)

	clockSchema := schema.Object().
		Desc("Get the current date and time").
		Strict().
		MustBuild()

	p.MustRegister("clock", "Get the current date and time", clockSchema,
		func(ctx context.Context, args map[string]any) (string, error) {
			return time.Now().Format(time.RFC1123), nil
		},
	)

	return p
}
