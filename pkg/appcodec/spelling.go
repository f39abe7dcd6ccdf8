package appcodec

// Spelling is the fixed list of canonical attribute names AppFormat dict
// decoding normalizes against (§6.3). Matching is case-insensitive and the
// first match wins; a wire name with no match passes through unchanged.
// This list must be embedded verbatim to guarantee bit-exact round-trips of
// upstream snapshots.
var Spelling = []string{
	"ActiveEffects", "BodyFlags", "Caps", "ClearedStatus",
	"Clip", "CurrAP", "CurrCell", "CurrHP", "CurrWeight",
	"CurrWorldspace", "CurrentHPGain", "Custom", "DateDay",
	"DateMonth", "DateYear", "Description", "Discovered",
	"Doors", "EffectColor", "Extents", "FavIconType", "HandleID",
	"HeadCondition", "HeadFlags", "Height", "HolotapePlaying",
	"InvComponents", "Inventory", "IsDataUnavailable",
	"IsInAnimation", "IsInAutoVanity", "IsInVats",
	"IsInVatsPlayback", "IsLoading", "IsMenuOpen",
	"IsPipboyNotEquipped", "IsPlayerDead", "IsPlayerInDialogue",
	"IsPlayerMovementLocked", "IsPlayerPipboyLocked",
	"LArmCondition", "LLegCondition", "ListVisible",
	"Local", "LocationFormId", "LocationMarkerFormId",
	"Locations", "Log", "Map", "MaxAP", "MaxHP", "MaxRank",
	"MaxWeight", "MinigameFormIds", "Modifier", "NEX", "NEY",
	"NWX", "NWY", "Name", "OnDoor", "PaperdollSection",
	"PerkPoints", "Perks", "Player", "PlayerInfo",
	"PlayerName", "PowerArmor", "QuestId", "Quests",
	"RArmCondition", "RLegCondition", "RadawayCount",
	"Radio", "Rank", "Rotation", "SWFFile", "SWX", "SWY",
	"Shared", "SlotResists", "SortMode", "Special", "StackID",
	"Stats", "Status", "StimpakCount", "TimeHour", "TorsoCondition",
	"TotalDamages", "TotalResists", "UnderwearType", "Value",
	"ValueType", "Version", "Visible", "Workshop",
	"WorkshopHappinessPct", "WorkshopOwned", "WorkshopPopulation",
	"World", "X", "XPLevel", "XPProgressPct", "Y",
	"canFavorite", "damageType", "diffRating", "equipState",
	"filterFlag", "formID", "inRange", "isLegendary",
	"isPowerArmorItem", "itemCardInfoList", "mapMarkerID",
	"radawayObjectID", "radawayObjectIDIsValid",
	"scaleWithDuration", "showAsPercent", "showIfZero",
	"sortedIDS", "statArray", "stimpakObjectID",
	"stimpakObjectIDIsValid", "taggedForSearch", "workshopData",
}
