package models

// All lists the persisted models in dependency order. Used by the sqlite
// auto-migrate path and test fixtures; postgres schemas come from goose.
func All() []any {
	return []any{
		&Governorate{},
		&Party{},
		&User{},
		&NationalIDRecord{},
		&CitizenProfile{},
		&CandidateProfile{},
		&MemberProfile{},
		&UserSession{},
		&AnonymousSession{},
		&LoginAttempt{},
	}
}
