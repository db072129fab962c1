package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// GuardDB 处理防护审计数据库操作。
// 记录踢出、可疑账户标记与邀请归属，仅用于事后审查；
// 进程内的防护状态不从这里恢复。
type GuardDB struct {
	db *sql.DB
}

// NewGuardDB 创建新的审计数据库实例。
// dbPath: 数据库文件路径
func NewGuardDB(dbPath string) (*GuardDB, error) {
	// 确保数据库目录存在
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("创建数据库目录失败: %w", err)
	}

	// 打开数据库连接
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}

	gdb := &GuardDB{db: db}

	// 初始化数据表
	if err := gdb.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("初始化数据表失败: %w", err)
	}

	return gdb, nil
}

// Close 关闭数据库连接
func (gdb *GuardDB) Close() {
	if gdb.db != nil {
		gdb.db.Close()
	}
}

// initTables 创建必要的数据表
func (gdb *GuardDB) initTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS raid_kicks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			guild_id TEXT NOT NULL,
			member_id TEXT NOT NULL,
			kicked_at INTEGER NOT NULL,
			ok INTEGER NOT NULL,
			detail TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS alt_flags (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			guild_id TEXT NOT NULL,
			member_id TEXT NOT NULL,
			inviter_id TEXT NOT NULL,
			reason TEXT,
			flagged_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS attributions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			guild_id TEXT NOT NULL,
			member_id TEXT NOT NULL,
			inviter_id TEXT,
			resolved_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS join_stats (
			guild_id TEXT NOT NULL,
			date TEXT NOT NULL,
			joins INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (guild_id, date)
		);`,
	}
	for _, q := range queries {
		if _, err := gdb.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// RecordKick 记录一次反突袭踢出尝试。
func (gdb *GuardDB) RecordKick(guildID, memberID string, ok bool, detail string) error {
	okInt := 0
	if ok {
		okInt = 1
	}
	_, err := gdb.db.Exec(
		`INSERT INTO raid_kicks (guild_id, member_id, kicked_at, ok, detail) VALUES (?, ?, ?, ?, ?)`,
		guildID, memberID, time.Now().Unix(), okInt, detail,
	)
	return err
}

// RecordFlag 记录一次可疑小号标记。
func (gdb *GuardDB) RecordFlag(guildID, memberID, inviterID, reason string) error {
	_, err := gdb.db.Exec(
		`INSERT INTO alt_flags (guild_id, member_id, inviter_id, reason, flagged_at) VALUES (?, ?, ?, ?, ?)`,
		guildID, memberID, inviterID, reason, time.Now().Unix(),
	)
	return err
}

// RecordAttribution 记录一次加入事件的邀请人归属结果。
// inviterID 为空表示未能确定邀请人。
func (gdb *GuardDB) RecordAttribution(guildID, memberID, inviterID string) error {
	_, err := gdb.db.Exec(
		`INSERT INTO attributions (guild_id, member_id, inviter_id, resolved_at) VALUES (?, ?, ?, ?)`,
		guildID, memberID, inviterID, time.Now().Unix(),
	)
	return err
}

// IncrementJoins 增加某服务器今日加入人数。
func (gdb *GuardDB) IncrementJoins(guildID string, count int) error {
	today := time.Now().Format("2006-01-02")
	_, err := gdb.db.Exec(
		`INSERT INTO join_stats (guild_id, date, joins) VALUES (?, ?, ?)
		 ON CONFLICT(guild_id, date) DO UPDATE SET joins = joins + ?`,
		guildID, today, count, count,
	)
	return err
}

// TodayJoins 查询某服务器今日加入人数。
func (gdb *GuardDB) TodayJoins(guildID string) (int, error) {
	today := time.Now().Format("2006-01-02")
	var joins int
	err := gdb.db.QueryRow(
		`SELECT joins FROM join_stats WHERE guild_id = ? AND date = ?`,
		guildID, today,
	).Scan(&joins)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return joins, nil
}
