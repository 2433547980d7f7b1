package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rgraph/internal/behaviour"
	"github.com/roach88/rgraph/internal/runtime"
)

// BehaviourInfo describes one registered behaviour type.
type BehaviourInfo struct {
	Behaviour string   `json:"behaviour"`
	Scope     string   `json:"scope"` // "entity", "entity component", "relation", "relation component"
	Owners    []string `json:"owners"`
}

// NewBehavioursCommand creates the behaviours command.
func NewBehavioursCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "behaviours",
		Short: "List the built-in behaviour types",
		Long: `List every behaviour type the runtime registers at startup, with the
entity, relation or component types that apply it.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBehaviours(rootOpts, cmd)
		},
	}
}

func runBehaviours(opts *RootOptions, cmd *cobra.Command) error {
	rt, err := runtime.New(runtime.WithLogger(opts.logger()))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start runtime", err)
	}

	var infos []BehaviourInfo
	infos = appendBehaviours(infos, "entity", rt.EntityRegistry())
	infos = appendBehaviours(infos, "entity component", rt.EntityComponentRegistry())
	infos = appendBehaviours(infos, "relation", rt.RelationRegistry())
	infos = appendBehaviours(infos, "relation component", rt.RelationComponentRegistry())

	if opts.Format == "json" {
		return writeResult(cmd.OutOrStdout(), infos, nil)
	}

	w := cmd.OutOrStdout()
	for _, info := range infos {
		fmt.Fprintf(w, "%-28s %-20s %s\n", info.Behaviour, info.Scope, strings.Join(info.Owners, ", "))
	}
	return nil
}

func appendBehaviours[ID comparable](infos []BehaviourInfo, scope string, reg *behaviour.Registry[ID]) []BehaviourInfo {
	for _, ty := range reg.BehaviourTypes() {
		info := BehaviourInfo{Behaviour: ty.String(), Scope: scope}
		for _, owner := range reg.OwnersOf(ty) {
			info.Owners = append(info.Owners, owner.String())
		}
		infos = append(infos, info)
	}
	return infos
}
