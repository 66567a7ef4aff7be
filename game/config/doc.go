// Package config manages search profiles.
//
// A profile is a JSON file in the config directory holding the tunable
// parameters of a roll sequence search:
//
//	{
//	  "name": "thorough",
//	  "players": 2,
//	  "attempts": 50000,
//	  "max_rolls": 400,
//	  "coverage_threshold": 0,
//	  "rules": "powerup"
//	}
//
// Unset fields take the built-in defaults (10000 attempts, 200 rolls, 0.5
// coverage threshold, powerup rules). The profile named "default" always
// exists: default.json overrides the built-in one when present.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	opts, err := manager.LoadProfile("thorough")
//	profiles, err := manager.ListProfiles()
//
// Profiles are cached after the first load; RefreshCache and ReloadProfile
// drop the cache.
package config
