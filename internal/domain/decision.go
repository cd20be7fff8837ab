package domain

// Branch 是路由分支。
type Branch string

const (
	BranchPictures Branch = "pictures"
	BranchVideos   Branch = "videos"
	BranchWudan    Branch = "wudan"
)

// RoutingDecision 是单个文件的最终路由结论：去哪、是否已有同文件。
// Duplicate=true 时不复制，只在报告中记一条 duplicate。
type RoutingDecision struct {
	DestDir   string
	Branch    Branch
	Duplicate bool
}
