package recommend

import (
	"math"
	"sort"
	"strings"
)

// round2 保留两位小数
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// toFraction 阈值归一化：大于 1 的取值按百分比处理
func toFraction(v float64) float64 {
	if v <= 0 {
		return 0
	}
	if v > 1 {
		return v / 100
	}
	return v
}

// GenerateRules 从频繁项集推导关联规则
// 对每个大小 ≥2 的频繁项集枚举全部非空真子集作为前件（2^n−2 种拆分），
// 仅保留后件可行动、confidence ≥ 阈值且 lift ≥ 1.0 的规则
func GenerateRules(res *MiningResult, minConfidenceFrac float64) []Rule {
	if res == nil || res.NumTransactions == 0 {
		return nil
	}

	numTxns := float64(res.NumTransactions)
	var rules []Rule

	for size, level := range res.Levels {
		if size < 2 {
			continue
		}
		for _, itemset := range level {
			jointFrac := float64(itemset.Count) / numTxns

			for r := 1; r < len(itemset.Tokens); r++ {
				for _, antecedent := range combinations(itemset.Tokens, r) {
					consequent := complement(itemset.Tokens, antecedent)

					// 后件不含可行动 token 的规则无法转化为商品推荐
					if !isActionableConsequent(consequent) {
						continue
					}

					// 前件是频繁项集的子集，支持度必然已知；此处仍做零保护
					antecedentCount, ok := res.SupportCount(antecedent)
					if !ok || antecedentCount == 0 {
						continue
					}
					antecedentFrac := float64(antecedentCount) / numTxns

					confidence := jointFrac / antecedentFrac
					if confidence < minConfidenceFrac {
						continue
					}

					// 后件支持度取单 token 支持度的最大值（多 token 后件的宽松口径）
					consequentFrac := 0.0
					for _, tok := range consequent {
						frac := float64(res.SingletonCounts[tok]) / numTxns
						if frac > consequentFrac {
							consequentFrac = frac
						}
					}
					if consequentFrac == 0 {
						continue
					}

					lift := jointFrac / (antecedentFrac * consequentFrac)
					if lift < 1.0 {
						continue
					}

					rules = append(rules, Rule{
						Antecedent: sortedCopy(antecedent),
						Consequent: sortedCopy(consequent),
						Support:    round2(jointFrac * 100),
						Confidence: round2(confidence * 100),
						Lift:       round2(lift),
					})
				}
			}
		}
	}

	sortRules(rules)
	return rules
}

// sortRules 按 (confidence, support) 降序排列；
// 再按前件/后件 token 做确定性终排序，保证重复运行输出逐字节一致
func sortRules(rules []Rule) {
	sort.Slice(rules, func(i, j int) bool {
		if rules[i].Confidence != rules[j].Confidence {
			return rules[i].Confidence > rules[j].Confidence
		}
		if rules[i].Support != rules[j].Support {
			return rules[i].Support > rules[j].Support
		}
		ai := strings.Join(rules[i].Antecedent, "|")
		aj := strings.Join(rules[j].Antecedent, "|")
		if ai != aj {
			return ai < aj
		}
		return strings.Join(rules[i].Consequent, "|") < strings.Join(rules[j].Consequent, "|")
	})
}

// combinations 枚举 tokens 的全部 r-组合
func combinations(tokens []string, r int) [][]string {
	if r <= 0 || r > len(tokens) {
		return nil
	}
	var result [][]string
	combo := make([]string, r)

	var walk func(start, depth int)
	walk = func(start, depth int) {
		if depth == r {
			picked := make([]string, r)
			copy(picked, combo)
			result = append(result, picked)
			return
		}
		for i := start; i <= len(tokens)-(r-depth); i++ {
			combo[depth] = tokens[i]
			walk(i+1, depth+1)
		}
	}
	walk(0, 0)
	return result
}

// complement 集合差：tokens − subset
func complement(tokens, subset []string) []string {
	drop := make(map[string]bool, len(subset))
	for _, tok := range subset {
		drop[tok] = true
	}
	out := make([]string, 0, len(tokens)-len(subset))
	for _, tok := range tokens {
		if !drop[tok] {
			out = append(out, tok)
		}
	}
	return out
}

func sortedCopy(tokens []string) []string {
	out := make([]string, len(tokens))
	copy(out, tokens)
	sort.Strings(out)
	return out
}
