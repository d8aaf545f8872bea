package redis

import (
	"fmt"

	"github.com/mcoot/teamfinder/internal/model"
)

// Key prefix for all teamfinder data
const keyPrefix = "teamfinder"

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// playersIndexKey returns the Redis key for the SET of all player IDs
func playersIndexKey() string {
	return fmt.Sprintf("%s:idx:players", keyPrefix)
}

// declarationKey returns the Redis key for one player's declaration on a date
func declarationKey(date model.Date, playerID model.PlayerID) string {
	return fmt.Sprintf("%s:decl:%s:%s", keyPrefix, date, playerID)
}

// declarationsForDateIndexKey returns the Redis key for the SET of player IDs
// that declared on a date
func declarationsForDateIndexKey(date model.Date) string {
	return fmt.Sprintf("%s:idx:decls_for_date:%s", keyPrefix, date)
}

// datesForPlayerIndexKey returns the Redis key for the SET of dates a player
// declared on
func datesForPlayerIndexKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:idx:dates_for_player:%s", keyPrefix, playerID)
}
