package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	booleanFlagTypeName              = "bool"
	booleanFlagTrueLiteral           = "true"
	booleanFlagAcceptedValuesListing = "true, false, yes, no, on, off, 1, 0"
	booleanFlagInvalidValueFormat    = "invalid boolean value %q for --%s; accepted values: %s"
	argumentTerminator               = "--"
	longFlagPrefix                   = "--"
)

var booleanFlagLiterals = map[string]bool{
	"true":  true,
	"t":     true,
	"1":     true,
	"yes":   true,
	"y":     true,
	"on":    true,
	"false": false,
	"f":     false,
	"0":     false,
	"no":    false,
	"n":     false,
	"off":   false,
}

func parseBooleanLiteral(input string) (bool, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return true, true
	}
	parsed, ok := booleanFlagLiterals[normalized]
	return parsed, ok
}

// booleanFlagValue accepts yes/no style literals in addition to strconv booleans.
type booleanFlagValue struct {
	target *bool
	name   string
}

func (value *booleanFlagValue) Set(input string) error {
	parsed, ok := parseBooleanLiteral(input)
	if !ok {
		return fmt.Errorf(booleanFlagInvalidValueFormat, input, value.name, booleanFlagAcceptedValuesListing)
	}
	*value.target = parsed
	return nil
}

func (value *booleanFlagValue) String() string {
	if value == nil || value.target == nil {
		return strconv.FormatBool(false)
	}
	return strconv.FormatBool(*value.target)
}

func (value *booleanFlagValue) Type() string {
	return booleanFlagTypeName
}

func registerBooleanFlag(flagSet *pflag.FlagSet, target *bool, name string, defaultValue bool, usage string) {
	if flagSet == nil || target == nil {
		return
	}
	*target = defaultValue
	flagSet.Var(&booleanFlagValue{target: target, name: name}, name, usage)
	if lookup := flagSet.Lookup(name); lookup != nil {
		lookup.DefValue = strconv.FormatBool(defaultValue)
		lookup.NoOptDefVal = booleanFlagTrueLiteral
	}
}

// normalizeBooleanFlagArguments joins "--flag value" into "--flag=value" for
// boolean flags whose following argument is a boolean literal, so that
// "--summary no" does not treat "no" as a session location.
func normalizeBooleanFlagArguments(command *cobra.Command, arguments []string) []string {
	if command == nil || len(arguments) == 0 {
		return arguments
	}
	booleanFlags := map[string]struct{}{}
	collectBooleanFlagNames(command, booleanFlags)
	if len(booleanFlags) == 0 {
		return arguments
	}
	commandNames := map[string]struct{}{}
	collectCommandNames(command, commandNames)
	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		current := arguments[index]
		if current == argumentTerminator {
			normalized = append(normalized, arguments[index:]...)
			break
		}
		if strings.HasPrefix(current, longFlagPrefix) && !strings.Contains(current, "=") && index+1 < len(arguments) {
			name := strings.TrimPrefix(current, longFlagPrefix)
			next := arguments[index+1]
			_, isCommand := commandNames[next]
			if _, isBoolean := booleanFlags[name]; isBoolean && !isCommand && next != "" && !strings.HasPrefix(next, "-") {
				if _, isLiteral := booleanFlagLiterals[strings.ToLower(strings.TrimSpace(next))]; isLiteral {
					normalized = append(normalized, current+"="+next)
					index++
					continue
				}
			}
		}
		normalized = append(normalized, current)
	}
	return normalized
}

func collectBooleanFlagNames(command *cobra.Command, target map[string]struct{}) {
	visit := func(flagSet *pflag.FlagSet) {
		flagSet.VisitAll(func(flag *pflag.Flag) {
			if flag.Value != nil && flag.Value.Type() == booleanFlagTypeName {
				target[flag.Name] = struct{}{}
			}
		})
	}
	visit(command.PersistentFlags())
	visit(command.Flags())
	for _, child := range command.Commands() {
		collectBooleanFlagNames(child, target)
	}
}

// collectCommandNames records subcommand names and aliases, which are never boolean literals.
func collectCommandNames(command *cobra.Command, target map[string]struct{}) {
	for _, child := range command.Commands() {
		target[child.Name()] = struct{}{}
		for _, alias := range child.Aliases {
			target[alias] = struct{}{}
		}
		collectCommandNames(child, target)
	}
}
