package completion

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Helcaraxan/aptgraph/internal/printer"
	"github.com/Helcaraxan/aptgraph/internal/util"
)

var ErrUnknownShell = errors.New("unknown shell")

type ShellType uint8

const (
	UNKNOWN ShellType = iota
	BASH
	FISH
	POWERSHELL
	ZSH
)

var shellToString = map[ShellType]string{
	BASH:       "bash",
	FISH:       "fish",
	POWERSHELL: "powershell",
	ZSH:        "zsh",
}

func (s ShellType) String() string {
	return shellToString[s]
}

func GenerateCompletionScript(log *zap.Logger, rootCmd *cobra.Command, shell ShellType, writer io.Writer) error {
	if fileWriter, ok := writer.(*os.File); ok {
		log.Debug("Writing shell completion script.", zap.Stringer("shell", shell), zap.String("path", fileWriter.Name()))
	}

	var err error
	switch shell {
	case BASH:
		err = rootCmd.GenBashCompletionV2(writer, true)
	case FISH:
		err = rootCmd.GenFishCompletion(writer, true)
	case POWERSHELL:
		err = rootCmd.GenPowerShellCompletionWithDesc(writer)
	case ZSH:
		err = rootCmd.GenZshCompletion(writer)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownShell, shell)
	}
	if err != nil {
		return fmt.Errorf("failed to write shell completion script: %w", err)
	}
	return nil
}

// PackageNamesCommand lists the names of all known packages starting with the prefix given as
// last argument.
var PackageNamesCommand = []string{"apt-cache", "pkgnames"}

const packageNamesTimeout = 5 * time.Second

// PackageNames returns the sorted names of the known packages that start with 'prefix'. Any
// failure results in no suggestions.
func PackageNames(ctx context.Context, log *zap.Logger, prefix string) []string {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := util.WithTimeout(ctx, packageNamesTimeout)
	defer cancel()

	args := append(append([]string(nil), PackageNamesCommand[1:]...), prefix)
	stdout, _, err := util.RunCommand(ctx, log, "", PackageNamesCommand[0], args...)
	if err != nil {
		log.Debug("Could not list package names.", zap.Error(err))
		return nil
	}

	var names []string
	scanner := bufio.NewScanner(bytes.NewReader(stdout))
	for scanner.Scan() {
		if name := strings.TrimSpace(scanner.Text()); name != "" && strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// PackageArg completes the single package name argument of a command.
func PackageArg(log *zap.Logger) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return PackageNames(ctx, log, toComplete), cobra.ShellCompDirectiveNoFileComp
	}
}

// Formats completes the value of an image format flag.
func Formats(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	formats := make([]string, 0, len(printer.FormatToString))
	for _, format := range printer.FormatToString {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats, cobra.ShellCompDirectiveNoFileComp
}
