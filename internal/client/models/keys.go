package models

// Local store keys.
const (
	KeyAuthToken    = "authToken"
	KeyUserData     = "userData"
	KeyDecks        = "decks"
	KeySyncQueue    = "syncQueue"
	KeyLastSyncTime = "lastSyncTime"

	userDecksPrefix      = "decks_"
	localUserPrefix      = "localUser_"
	localUserAliasPrefix = "localUserAlias_"
)

// UserDecksKey is the durable per-identity deck snapshot key.
func UserDecksKey(email string) string { return userDecksPrefix + email }

// LocalUserKey is the canonical key of a cached local account.
func LocalUserKey(email string) string { return localUserPrefix + email }

// LocalUserAliasKey maps a username to the owning email.
func LocalUserAliasKey(username string) string { return localUserAliasPrefix + username }

// LocalUserPrefix is used to enumerate cached accounts.
func LocalUserPrefix() string { return localUserPrefix }

// LocalUserAliasPrefix is used to enumerate the username index.
func LocalUserAliasPrefix() string { return localUserAliasPrefix }
