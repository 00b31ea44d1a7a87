package cmds

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"

	"github.com/AndrewConway/ConcreteSTV/util"
	"github.com/AndrewConway/ConcreteSTV/util/logging"
)

var (
	Name        = "concretestv"
	Description = "count single transferable vote elections the way real electoral commissions do, bugs included"
	Version     = "0.1.0"
)

var MainOptions = kong.HelpOptions{NoAppSummary: false, Compact: true, Summary: false, Tree: true}

var defaultKongOptions = []kong.Option{
	kong.Name(Name),
	kong.Description(Description),
	kong.UsageOnError(),
	kong.ConfigureHelp(MainOptions),
	LogVars,
}

// Context parses args into flags with the default options applied.
func Context(args []string, flags interface{}, options ...kong.Option) (*kong.Context, error) {
	ops := make([]kong.Option, len(defaultKongOptions)+len(options))
	copy(ops, defaultKongOptions)
	copy(ops[len(defaultKongOptions):], options)

	p, err := kong.New(flags, ops...)
	if err != nil {
		return nil, err
	}
	return p.Parse(args)
}

// BaseCommand carries logging shared by every command.
type BaseCommand struct {
	*logging.Logging `kong:"-"`
	LogOutput        io.Writer `kong:"-"`
	runID            string
}

func NewBaseCommand(name string) *BaseCommand {
	return &BaseCommand{
		Logging: logging.NewLogging(func(c zerolog.Context) zerolog.Context {
			return c.Str("module", fmt.Sprintf("command-%s", name))
		}),
		LogOutput: os.Stderr,
		runID:     util.UUID().String(),
	}
}

// Initialize sets up logging from flags and logs the run identity.
func (cmd *BaseCommand) Initialize(flags *LogFlags) error {
	lg, err := SetupLoggingFromFlags(flags, cmd.LogOutput)
	if err != nil {
		return err
	}
	_ = cmd.SetLogging(lg)

	cmd.Log().Debug().Str("run_id", cmd.runID).Str("version", Version).Msg("initialized")

	return nil
}

// LoggingOrNop returns the configured logging, creating a nop one if
// none is set, so commands can pass it on.
func (cmd *BaseCommand) LoggingOrNop() *logging.Logging {
	if cmd.Logging == nil {
		cmd.Logging = logging.NewLogging(nil)
	}
	return cmd.Logging
}
