package layout

// Diff compares an old and new DeploymentPlan and reports the actions a
// single reconciliation step must take. Both plans may be nil-ish zero
// values; callers typically pass a nil old plan on first resolution.
func Diff(oldPlan, newPlan *DeploymentPlan) PlanDiff {
	var d PlanDiff

	oldServices := map[string]ServiceConfig{}
	if oldPlan != nil {
		oldServices = oldPlan.Services
	}
	newServices := map[string]ServiceConfig{}
	if newPlan != nil {
		newServices = newPlan.Services
	}

	for id, newCfg := range newServices {
		oldCfg, existed := oldServices[id]
		switch {
		case !existed:
			d.ToSpawn = append(d.ToSpawn, id)
		case configsEqual(oldCfg, newCfg):
			// no-op
		case hotReloadable(oldCfg, newCfg):
			d.ToReconfigure = append(d.ToReconfigure, ReconfigureAction{NodeID: id, Config: newCfg})
		default:
			d.ToKill = append(d.ToKill, id)
			d.ToSpawn = append(d.ToSpawn, id)
		}
	}

	for id := range oldServices {
		if _, stillPresent := newServices[id]; !stillPresent {
			d.ToKill = append(d.ToKill, id)
		}
	}

	return d
}

func configsEqual(a, b ServiceConfig) bool {
	return ConfigsEqual(a, b)
}

// ConfigsEqual reports whether a and b describe an identical launch: same
// binary, service_type, args and env. Exported so callers outside this
// package (the supervisor's per-node reconcile check) can reuse the exact
// equality Diff itself uses.
func ConfigsEqual(a, b ServiceConfig) bool {
	if a.BinaryPath != b.BinaryPath || a.ServiceType != b.ServiceType {
		return false
	}
	if !envEqual(a.Env, b.Env) {
		return false
	}
	if len(a.Args) != len(b.Args) {
		return false
	}
	for i := range a.Args {
		if a.Args[i] != b.Args[i] {
			return false
		}
	}
	return true
}

// hotReloadable reports whether old and new differ only in Args: the
// binary, service_type and env are unchanged, so the new bindings can be
// pushed via admin UpdateBindings instead of a restart.
func hotReloadable(a, b ServiceConfig) bool {
	return HotReloadable(a, b)
}

// HotReloadable is the exported form of hotReloadable, reused by the
// supervisor's per-node reconcile decision outside of a full Diff.
func HotReloadable(a, b ServiceConfig) bool {
	return a.BinaryPath == b.BinaryPath && a.ServiceType == b.ServiceType && envEqual(a.Env, b.Env)
}

func envEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}
