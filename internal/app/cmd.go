package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandAddUser はユーザーを作成することを示す。
	// ユーザー登録エンドポイントは公開しないため、運用者がCLI経由で作成する。
	CommandAddUser Command = "adduser"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "serve":
		return CommandServe
	case "migrate":
		return CommandMigrate
	case "adduser":
		return CommandAddUser
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandServe
	}
}
