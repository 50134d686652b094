package category

import "fmt"

// LeaderboardKeyPrefix 是每个类别的计票榜在Redis中的键前缀。
// 每个类别对应一个Sorted Set：
// Key: leaderboard:<categoryID>
// Score: 候选项的得票数
// Member: 候选项ID
// 榜单由vote模块在每次成功计票后递增，并在启动/重建时从账本全量重放。
const LeaderboardKeyPrefix = "leaderboard:"

// LeaderboardKey 返回指定类别的计票榜键名。
func LeaderboardKey(categoryID string) string {
	return fmt.Sprintf("%s%s", LeaderboardKeyPrefix, categoryID)
}
