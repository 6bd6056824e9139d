package cascade

import (
	"fmt"
	"strings"

	"github.com/ripplework/ripple/internal/types"
)

// flatEffects builds the durable audit form of the report: one short tag
// per effect, in the same fixed order as the rendered summary.
func flatEffects(r *types.CascadeReport) []string {
	var effects []string
	for _, u := range r.Unblocks {
		effects = append(effects, types.EffectTag("unblock", u.ID))
	}
	for _, p := range r.ReviewPrompts {
		effects = append(effects, types.EffectTag("review", p.ID))
	}
	if n := len(r.Related); n > 0 {
		effects = append(effects, types.EffectTag("related", fmt.Sprintf("%d", n)))
	}
	for _, d := range r.MilestoneDeltas {
		effects = append(effects, types.EffectTag("milestone", fmt.Sprintf("+%d", d.Delta())))
	}
	for _, s := range r.Substantive {
		effects = append(effects, types.EffectTag("substantive", s.Location))
	}
	return effects
}

// renderSummary produces the human-readable report. Headings appear in a
// fixed order; the final line names the next ready item or states that
// nothing was affected.
func renderSummary(r *types.CascadeReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cascade for %s (%s)\n", r.Source, r.Status)

	if len(r.Unblocks) > 0 {
		b.WriteString("\nUNBLOCK\n")
		for _, u := range r.Unblocks {
			if u.Ready {
				fmt.Fprintf(&b, "  %s: ready\n", u.ID)
			} else {
				fmt.Fprintf(&b, "  %s: still blocked by %s\n",
					u.ID, strings.Join(u.RemainingBlockers, ", "))
			}
		}
	}

	if len(r.ReviewPrompts) > 0 {
		b.WriteString("\nREVIEW PROMPT\n")
		for _, p := range r.ReviewPrompts {
			if p.Stale {
				fmt.Fprintf(&b, "  %s: review before starting (untouched for %d sessions, stale)\n",
					p.ID, p.SessionsSinceLastTouch)
			} else {
				fmt.Fprintf(&b, "  %s: review before starting\n", p.ID)
			}
		}
	}

	if len(r.Related) > 0 {
		b.WriteString("\nRELATED\n")
		for _, rel := range r.Related {
			fmt.Fprintf(&b, "  %s (%s): %s\n", rel.ID, rel.Direction, rel.Reason)
		}
	}

	if len(r.MilestoneDeltas) > 0 {
		b.WriteString("\nMILESTONE\n")
		for _, d := range r.MilestoneDeltas {
			fmt.Fprintf(&b, "  %s: %d%% -> %d%%\n", d.MilestoneID, d.OldProgress, d.NewProgress)
		}
	}

	if len(r.Substantive) > 0 {
		b.WriteString("\nSUBSTANTIVE\n")
		for _, s := range r.Substantive {
			fmt.Fprintf(&b, "  %s: %s\n", s.Location, s.Note)
		}
	}

	b.WriteString("\n")
	if next := r.NextReady(); next != "" {
		fmt.Fprintf(&b, "Action: %s is next\n", next)
	} else if r.HasEffects() {
		b.WriteString("Action: review the effects above\n")
	} else {
		b.WriteString("No dependents affected\n")
	}
	return b.String()
}
