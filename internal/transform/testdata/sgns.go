package main

import "encoding/json"

// Transform reshapes {"sgns":[{"v": .., "d": ..}]} into the canonical document.
func Transform(content string) (string, error) {
	var in map[string]interface{}
	if err := json.Unmarshal([]byte(content), &in); err != nil {
		return "", err
	}
	sgns, _ := in["sgns"].([]interface{})
	out := make([]interface{}, 0, len(sgns))
	for _, raw := range sgns {
		sgn, _ := raw.(map[string]interface{})
		out = append(out, map[string]interface{}{
			"tc:value":       sgn["v"],
			"tc:description": sgn["d"],
		})
	}
	data, err := json.Marshal(map[string]interface{}{"tc:suggestion": out})
	return string(data), err
}
