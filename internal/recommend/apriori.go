package recommend

import (
	"math"
	"sort"
	"strings"
)

// itemsetKey 项集的规范键（token 排序后拼接），用于跨层查支持度
func itemsetKey(tokens []string) string {
	sorted := make([]string, len(tokens))
	copy(sorted, tokens)
	sort.Strings(sorted)
	return strings.Join(sorted, "|")
}

// MiningResult 逐层挖掘结果
type MiningResult struct {
	NumTransactions int
	MinSupportCount int

	// Levels 项集大小 → 规范键 → 频繁项集
	Levels map[int]map[string]*Itemset

	// SingletonCounts 全量单 token 支持计数（含低频 token，后件支持度计算需要）
	SingletonCounts map[string]int
}

// SupportCount 查询任意 token 集合的频繁支持计数
func (r *MiningResult) SupportCount(tokens []string) (int, bool) {
	level, ok := r.Levels[len(tokens)]
	if !ok {
		return 0, false
	}
	is, ok := level[itemsetKey(tokens)]
	if !ok {
		return 0, false
	}
	return is.Count, true
}

// TotalItemsets 频繁项集总数
func (r *MiningResult) TotalItemsets() int {
	total := 0
	for _, level := range r.Levels {
		total += len(level)
	}
	return total
}

// MineFrequentItemsets 逐层（Apriori）挖掘频繁项集
// minSupportFrac 为分数阈值；maxLen 限制项集最大长度以约束候选生成成本
func MineFrequentItemsets(transactions []Transaction, minSupportFrac float64, maxLen int) *MiningResult {
	result := &MiningResult{
		NumTransactions: len(transactions),
		Levels:          make(map[int]map[string]*Itemset),
		SingletonCounts: make(map[string]int),
	}
	if len(transactions) == 0 {
		return result
	}

	result.MinSupportCount = int(math.Ceil(minSupportFrac * float64(len(transactions))))

	// 事务预先转集合：支持计数按「每笔事务每个 token 至多一次」统计
	txnSets := make([]map[string]bool, len(transactions))
	for i, txn := range transactions {
		set := make(map[string]bool, len(txn))
		for _, tok := range txn {
			set[tok] = true
		}
		txnSets[i] = set
		for tok := range set {
			result.SingletonCounts[tok]++
		}
	}

	// 频繁 1-项集
	l1 := make(map[string]*Itemset)
	for tok, count := range result.SingletonCounts {
		if count >= result.MinSupportCount {
			l1[itemsetKey([]string{tok})] = &Itemset{Tokens: []string{tok}, Count: count}
		}
	}
	if len(l1) == 0 {
		return result
	}
	result.Levels[1] = l1

	// 逐层生成 k-项集
	for k := 2; k <= maxLen; k++ {
		prev := result.Levels[k-1]
		candidates := generateCandidates(prev, k)
		if len(candidates) == 0 {
			break
		}

		lk := make(map[string]*Itemset)
		for key, tokens := range candidates {
			count := 0
			for _, set := range txnSets {
				if containsAll(set, tokens) {
					count++
				}
			}
			if count >= result.MinSupportCount {
				lk[key] = &Itemset{Tokens: tokens, Count: count}
			}
		}
		if len(lk) == 0 {
			break
		}
		result.Levels[k] = lk
	}

	return result
}

// generateCandidates 以频繁 (k-1)-项集两两求并生成 k-候选，
// 并按反单调性剪枝：任一 (k-1)-子集不频繁的候选直接丢弃
func generateCandidates(prev map[string]*Itemset, k int) map[string][]string {
	keys := make([]string, 0, len(prev))
	for key := range prev {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	candidates := make(map[string][]string)
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			union := unionTokens(prev[keys[i]].Tokens, prev[keys[j]].Tokens)
			if len(union) != k {
				continue
			}
			key := strings.Join(union, "|")
			if _, ok := candidates[key]; ok {
				continue
			}
			if !allSubsetsFrequent(union, prev) {
				continue
			}
			candidates[key] = union
		}
	}
	return candidates
}

// allSubsetsFrequent 检查全部 (k-1)-子集是否均为已知频繁项集
func allSubsetsFrequent(tokens []string, prev map[string]*Itemset) bool {
	sub := make([]string, 0, len(tokens)-1)
	for drop := range tokens {
		sub = sub[:0]
		for i, tok := range tokens {
			if i != drop {
				sub = append(sub, tok)
			}
		}
		if _, ok := prev[strings.Join(sub, "|")]; !ok {
			return false
		}
	}
	return true
}

// unionTokens 两个有序 token 切片的有序去重并集
func unionTokens(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		default:
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

func containsAll(set map[string]bool, tokens []string) bool {
	for _, tok := range tokens {
		if !set[tok] {
			return false
		}
	}
	return true
}
