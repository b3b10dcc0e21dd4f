package resource

// delimiter はパスのセグメント区切り文字。
const delimiter = '/'

// Resolve はリクエストパス（クエリ文字列を含む）をサービスIDと転送先パスに分割する。
//
// 先頭の区切り文字は1つだけ読み飛ばす。続く区切り文字の直前までがサービスIDで、
// その区切り文字以降が転送先パスになる。区切り文字が見つからない場合、転送先パスは空。
// 連続する先頭の区切り文字は除去しないため、"//x" はサービスID "" と "/x" になる。
// すべての入力に対して結果を返し、エラーは存在しない。
func Resolve(path string) (serviceID, downstreamPath string) {
	cursor, start := 0, 0
	if len(path) > 0 && path[0] == delimiter {
		cursor, start = 1, 1
	}
	for cursor < len(path) && path[cursor] != delimiter {
		cursor++
	}
	return path[start:cursor], path[cursor:]
}
